// Package services holds the error taxonomy and context plumbing shared by
// the analysis pipeline and its external collaborators.
package services
