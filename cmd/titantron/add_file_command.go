package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"titantron/internal/store"
)

var videoFileExtensions = map[string]struct{}{
	".mkv": {},
	".mp4": {},
	".avi": {},
	".ts":  {},
}

func newAddFileCommand(ctx *commandContext) *cobra.Command {
	var libraryFlag int64
	var titleFlag string
	var itemFlag string

	cmd := &cobra.Command{
		Use:   "add-file <path>",
		Short: "Register a video file for analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			absPath, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}

			info, err := os.Stat(absPath)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("file does not exist: %s", absPath)
				}
				return fmt.Errorf("inspect file: %w", err)
			}
			if info.IsDir() {
				return fmt.Errorf("%s is a directory", absPath)
			}

			ext := strings.ToLower(filepath.Ext(info.Name()))
			if _, ok := videoFileExtensions[ext]; !ok {
				return fmt.Errorf("unsupported file extension %q", ext)
			}

			title := strings.TrimSpace(titleFlag)
			if title == "" {
				title = deriveTitle(absPath)
			}

			return ctx.withEngine(true, func(e *engine) error {
				video, err := e.store.AddVideo(cmd.Context(), store.Video{
					LibraryID:    libraryFlag,
					Title:        title,
					RemoteItemID: strings.TrimSpace(itemFlag),
					ServerPath:   absPath,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Registered video #%d (%s)\n", video.ID, video.Title)
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&libraryFlag, "library", 1, "Library the video belongs to")
	cmd.Flags().StringVar(&titleFlag, "title", "", "Title override (default derives from the filename)")
	cmd.Flags().StringVar(&itemFlag, "item", "", "Media server item id for thumbnail fallback and chapter push")
	return cmd
}

// deriveTitle turns a filename into a presentable title: separators become
// spaces, everything else non-alphanumeric is dropped, then title case.
func deriveTitle(sourcePath string) string {
	base := filepath.Base(sourcePath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	cleaned := strings.Builder{}
	prevSpace := false
	for _, r := range base {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	title := strings.TrimSpace(cleaned.String())
	if title == "" {
		return "Untitled"
	}
	return cases.Title(language.Und).String(title)
}
