package reconcile

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"desa-feedback-system/pkg/media"
	"desa-feedback-system/pkg/middleware"
	"desa-feedback-system/services/api-service/models"
)

// MediaStore is the remote host's kind-partitioned bulk-deletion API.
type MediaStore interface {
	BatchDelete(ctx context.Context, kind media.Kind, keys []string) error
}

// OrphanRecorder keeps leaked storage keys discoverable.
type OrphanRecorder interface {
	RecordOrphans(ctx context.Context, kind media.Kind, keys []string, cause error)
}

const cleanupTimeout = 10 * time.Second

// Cleaner deletes remote media best-effort. Failures are counted, recorded
// and logged, never returned: cleanup must not block or fail the record
// mutation that triggered it.
type Cleaner struct {
	store  MediaStore
	ledger OrphanRecorder
}

func NewCleaner(store MediaStore, ledger OrphanRecorder) *Cleaner {
	return &Cleaner{store: store, ledger: ledger}
}

// Cleanup issues one batch delete per non-empty kind group, concurrently.
// It runs on a fresh bounded context so in-flight deletions finish even if
// the originating client has disconnected.
func (c *Cleaner) Cleanup(atts []models.Attachment) {
	if len(atts) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	for kind, keys := range Partition(atts) {
		kind, keys := kind, keys
		g.Go(func() error {
			if err := c.store.BatchDelete(ctx, kind, keys); err != nil {
				middleware.CountMediaDeleteFailures(string(kind), len(keys))
				if c.ledger != nil {
					c.ledger.RecordOrphans(ctx, kind, keys, err)
				}
				log.Printf("[WARN] Failed to delete %d %s objects, keys recorded as orphaned: %v", len(keys), kind, err)
				return nil
			}
			middleware.CountMediaDeletes(string(kind), len(keys))
			return nil
		})
	}
	_ = g.Wait()
}
