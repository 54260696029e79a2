package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"titantron/internal/services"
	"titantron/internal/store"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status <video-id>",
		Short: "Show the analysis state of a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			videoID, err := parseID(args[0], "video id")
			if err != nil {
				return err
			}

			return ctx.withEngine(false, func(e *engine) error {
				video, err := e.store.GetVideo(cmd.Context(), videoID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				fmt.Fprintf(out, "Video #%d: %s\n", video.ID, video.Title)
				fmt.Fprintln(out, renderStateLine("Library", fmt.Sprintf("#%d", video.LibraryID), "", colorize))
				fmt.Fprintln(out, renderStateLine("Server path", video.ServerPath, "", colorize))
				if video.RemoteItemID != "" {
					fmt.Fprintln(out, renderStateLine("Remote item", video.RemoteItemID, "", colorize))
				}
				if video.DurationTicks > 0 {
					fmt.Fprintln(out, renderStateLine("Duration", formatTicks(video.DurationTicks), "", colorize))
				}

				run, err := e.store.GetRun(cmd.Context(), videoID)
				if errors.Is(err, services.ErrNotFound) {
					fmt.Fprintln(out, renderStateLine("Analysis", "never run", ansiYellow, colorize))
					return nil
				}
				if err != nil {
					return err
				}
				printRunStatus(out, run, colorize)
				return nil
			})
		},
	}
}

func printRunStatus(out io.Writer, run *store.AnalysisRun, colorize bool) {
	color := ""
	switch run.Status {
	case store.StatusCompleted:
		color = ansiGreen
	case store.StatusFailed:
		color = ansiRed
	case store.StatusRunningVisual, store.StatusRunningAudio:
		color = ansiYellow
	}

	fmt.Fprintln(out, renderStateLine("Analysis", string(run.Status), color, colorize))
	fmt.Fprintln(out, renderStateLine("Run", fmt.Sprintf("%s (%s)", run.RunID, run.Phase), "", colorize))
	if run.Status.Running() {
		progress := fmt.Sprintf("%ds processed", run.Progress)
		if run.TotalSteps > 0 {
			progress = fmt.Sprintf("%d%% (%d/%ds)", 100*run.Progress/run.TotalSteps, run.Progress, run.TotalSteps)
		}
		fmt.Fprintln(out, renderStateLine("Progress",
			fmt.Sprintf("%s %s", progress, run.Message), "", colorize))
	}
	if run.Message != "" && !run.Status.Running() {
		fmt.Fprintln(out, renderStateLine("Result", run.Message, "", colorize))
	}
	if run.Error != "" {
		fmt.Fprintln(out, renderStateLine("Error", run.Error, ansiRed, colorize))
	}
	if run.AudioSkipReason != "" {
		fmt.Fprintln(out, renderStateLine("Audio skip", run.AudioSkipReason, ansiYellow, colorize))
	}
	fmt.Fprintln(out, renderStateLine("Visual boundaries", fmt.Sprintf("%d", len(run.Visual)), "", colorize))
	fmt.Fprintln(out, renderStateLine("Audio events", fmt.Sprintf("%d", len(run.Audio)), "", colorize))
	if run.CompletedAt != nil {
		fmt.Fprintln(out, renderStateLine("Completed", run.CompletedAt.Local().Format(time.RFC3339), "", colorize))
	}
}
