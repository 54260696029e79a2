package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"titantron/internal/detect"
	"titantron/internal/services"
	"titantron/internal/services/mediaserver"
	"titantron/internal/store"
)

func newChaptersCommand(ctx *commandContext) *cobra.Command {
	chaptersCmd := &cobra.Command{
		Use:   "chapters",
		Short: "Chapter marker utilities",
	}
	chaptersCmd.AddCommand(newChaptersPushCommand(ctx))
	return chaptersCmd
}

func newChaptersPushCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "push <video-id>",
		Short: "Push detected boundaries to the media server as chapters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			videoID, err := parseID(args[0], "video id")
			if err != nil {
				return err
			}

			return ctx.withEngine(false, func(e *engine) error {
				if e.mediaServer == nil {
					return errors.New("media server integration is disabled; enable [media_server] in the config")
				}
				video, err := e.store.GetVideo(cmd.Context(), videoID)
				if err != nil {
					return err
				}
				if video.RemoteItemID == "" {
					return fmt.Errorf("video #%d has no media server item id", videoID)
				}

				run, err := e.store.GetRun(cmd.Context(), videoID)
				if errors.Is(err, services.ErrNotFound) {
					return fmt.Errorf("video #%d has never been analyzed", videoID)
				}
				if err != nil {
					return err
				}
				if run.Status != store.StatusCompleted {
					return fmt.Errorf("latest run is %s; analyze the video before pushing chapters", run.Status)
				}

				detections := make([]detect.Detection, 0, len(run.Visual)+len(run.Audio))
				detections = append(detections, run.Visual...)
				detections = append(detections, run.Audio...)
				chapters := mediaserver.BuildChapters(detections)
				if len(chapters) == 0 {
					return fmt.Errorf("video #%d has no detections to push", videoID)
				}

				if err := e.mediaServer.UpdateChapters(cmd.Context(), video.RemoteItemID, chapters); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Pushed %d chapters to item %s\n", len(chapters), video.RemoteItemID)
				return nil
			})
		},
	}
}
