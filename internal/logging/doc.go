// Package logging configures slog for the analyzer. It provides a compact
// console handler for interactive use, a JSON handler for log files, and
// helpers that pull standardized fields out of request contexts.
package logging
