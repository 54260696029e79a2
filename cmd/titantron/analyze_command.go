package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"titantron/internal/analysis"
	"titantron/internal/store"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var phaseFlag string

	cmd := &cobra.Command{
		Use:   "analyze <video-id>",
		Short: "Run boundary analysis for one video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			videoID, err := parseID(args[0], "video id")
			if err != nil {
				return err
			}
			phase, err := parsePhase(phaseFlag)
			if err != nil {
				return err
			}

			return ctx.withEngine(true, func(e *engine) error {
				runID, err := e.service.Start(cmd.Context(), videoID, phase)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Started run %s for video #%d (%s)\n", runID, videoID, phase)

				done := make(chan struct{})
				go func() {
					e.service.Wait()
					close(done)
				}()
				watchRun(out, e.service, videoID, done)

				run, err := e.store.GetRun(cmd.Context(), videoID)
				if err != nil {
					return err
				}
				printRunResult(out, run)
				if run.Status == store.StatusFailed {
					return fmt.Errorf("analysis failed: %s", run.Error)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&phaseFlag, "phase", "both", "Phases to run: both, visual, or audio")
	return cmd
}

// watchRun prints tracker progress until the run finishes. Progress counts
// seconds of media processed; without a known total it prints raw seconds.
func watchRun(out io.Writer, service *analysis.Service, videoID int64, done <-chan struct{}) {
	lastMessage := ""
	lastProgress := ""
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
		}
		snapshot, ok := service.Tracker().Get(videoID)
		if !ok {
			continue
		}
		progress := fmt.Sprintf("%5ds", snapshot.Progress)
		if snapshot.TotalSteps > 0 {
			progress = fmt.Sprintf("%3d%%", 100*snapshot.Progress/snapshot.TotalSteps)
		}
		if snapshot.Message != lastMessage || progress != lastProgress {
			fmt.Fprintf(out, "  %s  %s\n", progress, snapshot.Message)
			lastMessage = snapshot.Message
			lastProgress = progress
		}
	}
}

func printRunResult(out io.Writer, run *store.AnalysisRun) {
	switch run.Status {
	case store.StatusCompleted:
		fmt.Fprintf(out, "Completed: %s\n", run.Message)
	case store.StatusFailed:
		fmt.Fprintf(out, "Failed: %s\n", run.Error)
	default:
		fmt.Fprintf(out, "Run ended in state %s\n", run.Status)
	}
	if run.AudioSkipReason != "" {
		fmt.Fprintf(out, "Audio phase skipped: %s\n", run.AudioSkipReason)
	}
}
