// Package preflight provides readiness checks for the external tools,
// directories, and services an analysis run depends on.
//
// The CLI "titantron preflight" command runs the full set; individual checks
// back the status display. Checks gated by a config toggle are skipped when
// the feature is disabled.
package preflight
