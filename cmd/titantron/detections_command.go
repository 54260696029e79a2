package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"titantron/internal/detect"
	"titantron/internal/services"
)

func newDetectionsCommand(ctx *commandContext) *cobra.Command {
	var kindFlag string

	cmd := &cobra.Command{
		Use:   "detections <video-id>",
		Short: "List stored detections for a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			videoID, err := parseID(args[0], "video id")
			if err != nil {
				return err
			}
			var kindFilter detect.Kind
			if kindFlag != "" {
				kind, ok := detect.ParseKind(kindFlag)
				if !ok {
					return fmt.Errorf("unknown detection kind %q (known: %s)", kindFlag, kindList())
				}
				kindFilter = kind
			}

			return ctx.withEngine(false, func(e *engine) error {
				run, err := e.store.GetRun(cmd.Context(), videoID)
				if errors.Is(err, services.ErrNotFound) {
					return fmt.Errorf("video #%d has never been analyzed", videoID)
				}
				if err != nil {
					return err
				}

				detections := make([]detect.Detection, 0, len(run.Visual)+len(run.Audio))
				detections = append(detections, run.Visual...)
				detections = append(detections, run.Audio...)
				detect.SortByTimestamp(detections)

				rows := make([][]string, 0, len(detections))
				for _, d := range detections {
					if kindFilter != "" && d.Kind != kindFilter {
						continue
					}
					rows = append(rows, []string{
						formatTicks(d.TimestampTicks),
						string(d.Kind),
						formatConfidence(d.Confidence),
						d.Label,
					})
				}

				out := cmd.OutOrStdout()
				if len(rows) == 0 {
					fmt.Fprintf(out, "No detections stored for video #%d\n", videoID)
					return nil
				}
				fmt.Fprintln(out, renderDetectionTable(
					[]string{"Time", "Kind", "Confidence", "Label"}, rows, 3))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&kindFlag, "kind", "", "Only show detections of this kind")
	return cmd
}

func kindList() string {
	kinds := detect.AllKinds()
	names := make([]string, len(kinds))
	for i, kind := range kinds {
		names[i] = string(kind)
	}
	return strings.Join(names, ", ")
}
