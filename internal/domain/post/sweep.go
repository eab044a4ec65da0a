package post

import (
	"context"
	"time"

	apperrors "github.com/yanqian/blobdrop/pkg/errors"
)

// Sweep defaults, applied when the matching option is not positive.
const (
	DefaultSweepBatchSize = 100
	DefaultSweepMinAge    = time.Hour
)

// SweepOptions controls SweepOrphans. Objects younger than MinAge are skipped
// so in-flight uploads are never collected.
type SweepOptions struct {
	MinAge    time.Duration
	BatchSize int
	Apply     bool
}

// SweepResult summarizes a sweep.
type SweepResult struct {
	DryRun         bool  `json:"dryRun"`
	Scanned        int   `json:"scanned"`
	Candidates     int   `json:"candidates"`
	Deleted        int   `json:"deleted"`
	Failed         int   `json:"failed"`
	ReclaimedBytes int64 `json:"reclaimedBytes"`
}

// SweepOrphans walks the blob store and removes objects no post references.
// Without Apply it only reports what would be reclaimed.
func (s *Service) SweepOrphans(ctx context.Context, opts SweepOptions) (SweepResult, error) {
	result := SweepResult{DryRun: !opts.Apply}
	batch := opts.BatchSize
	if batch <= 0 {
		batch = DefaultSweepBatchSize
	}
	minAge := opts.MinAge
	if minAge <= 0 {
		minAge = DefaultSweepMinAge
	}
	cutoff := s.now().Add(-minAge)

	after := ""
	for {
		objects, err := s.blobs.List(ctx, after, batch)
		if err != nil {
			return result, apperrors.Wrap(CodeStoreUnavailable, "failed to list blobs", err)
		}
		for _, obj := range objects {
			after = obj.Handle
			result.Scanned++
			if obj.CreatedAt.After(cutoff) {
				continue
			}
			referenced, err := s.posts.HandleReferenced(ctx, obj.Handle)
			if err != nil {
				return result, apperrors.Wrap(CodeStoreUnavailable, "failed to check blob reference", err)
			}
			if referenced {
				continue
			}
			result.Candidates++
			if !opts.Apply {
				result.ReclaimedBytes += obj.SizeBytes
				continue
			}
			if err := s.blobs.Delete(ctx, obj.Handle); err != nil {
				s.logger.Warn("orphan delete failed", "handle", obj.Handle, "error", err)
				result.Failed++
				continue
			}
			result.Deleted++
			result.ReclaimedBytes += obj.SizeBytes
		}
		if len(objects) < batch {
			return result, nil
		}
	}
}
