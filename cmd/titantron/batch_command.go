package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"titantron/internal/store"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var phaseFlag string

	cmd := &cobra.Command{
		Use:   "batch <library-id>",
		Short: "Analyze every unanalyzed video in a library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			libraryID, err := parseID(args[0], "library id")
			if err != nil {
				return err
			}
			phase, err := parsePhase(phaseFlag)
			if err != nil {
				return err
			}

			return ctx.withEngine(true, func(e *engine) error {
				queued, err := e.service.StartBatch(cmd.Context(), libraryID, phase)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if queued == 0 {
					fmt.Fprintf(out, "Library #%d has no unanalyzed videos\n", libraryID)
					return nil
				}
				fmt.Fprintf(out, "Queued %d videos from library #%d\n", queued, libraryID)

				lastMessage := ""
				ticker := time.NewTicker(500 * time.Millisecond)
				defer ticker.Stop()
				for range ticker.C {
					status := e.service.BatchStatus()
					if status.Message != lastMessage && status.Message != "" {
						fmt.Fprintf(out, "  %s\n", status.Message)
						lastMessage = status.Message
					}
					if !status.Running {
						break
					}
				}
				e.service.Wait()

				status := e.service.BatchStatus()
				if status.Failed > 0 {
					return fmt.Errorf("%d of %d videos failed analysis", status.Failed, status.Total)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&phaseFlag, "phase", string(store.PhaseBoth), "Phases to run: both, visual, or audio")
	return cmd
}
