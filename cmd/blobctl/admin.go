package main

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/yanqian/blobdrop/internal/domain/post"
)

func newAdminCmd(open storeOpener, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrative commands",
	}

	cmd.AddCommand(newAdminGCBlobsCmd(open, jsonOutput))
	return cmd
}

func newAdminGCBlobsCmd(open storeOpener, jsonOutput *bool) *cobra.Command {
	var (
		apply     bool
		minAge    time.Duration
		batchSize int
	)

	cmd := &cobra.Command{
		Use:   "gc-blobs",
		Short: "Garbage-collect blobs no post references",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if minAge <= 0 {
				return errors.New("--min-age must be positive")
			}
			if batchSize < 0 {
				return errors.New("--batch-size cannot be negative")
			}

			return withStores(cmd.Context(), open, func(s *stores) error {
				resp, err := s.posts.SweepOrphans(cmd.Context(), post.SweepOptions{
					MinAge:    minAge,
					BatchSize: batchSize,
					Apply:     apply,
				})
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(cmd, resp)
				}
				mode := "dry run"
				if !resp.DryRun {
					mode = "applied"
				}
				return writePlain(cmd, "%s: scanned=%d candidates=%d deleted=%d failed=%d reclaimed_bytes=%d\n",
					mode, resp.Scanned, resp.Candidates, resp.Deleted, resp.Failed, resp.ReclaimedBytes)
			})
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "delete unreferenced blobs (default is a dry run)")
	cmd.Flags().DurationVar(&minAge, "min-age", post.DefaultSweepMinAge, "skip blobs younger than this, protecting uploads in flight")
	cmd.Flags().IntVar(&batchSize, "batch-size", post.DefaultSweepBatchSize, "blobs listed per page")
	return cmd
}
