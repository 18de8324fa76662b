package ledger

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"desa-feedback-system/pkg/media"
)

// OrphanedMedia is one remote object whose deletion failed. Record deletion
// never waits on remote cleanup, so failed deletes land here for operators
// to sweep later instead of disappearing silently.
type OrphanedMedia struct {
	ID         uint   `gorm:"primaryKey"`
	StorageKey string `gorm:"size:1024;index"`
	Kind       string `gorm:"size:16;index"`
	Cause      string `gorm:"type:text"`
	CreatedAt  time.Time
}

type Ledger struct {
	db *gorm.DB
}

// New migrates the ledger table. A nil *Ledger is a valid no-op ledger, so
// the API can run without Postgres configured.
func New(db *gorm.DB) (*Ledger, error) {
	if err := db.AutoMigrate(&OrphanedMedia{}); err != nil {
		return nil, err
	}
	return &Ledger{db: db}, nil
}

// RecordOrphans stores one row per leaked key. Failures here are logged
// only; the ledger must never make cleanup worse.
func (l *Ledger) RecordOrphans(ctx context.Context, kind media.Kind, keys []string, cause error) {
	if l == nil || len(keys) == 0 {
		return
	}

	reason := ""
	if cause != nil {
		reason = cause.Error()
	}

	rows := make([]OrphanedMedia, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, OrphanedMedia{
			StorageKey: key,
			Kind:       string(kind),
			Cause:      reason,
		})
	}

	if err := l.db.WithContext(ctx).Create(&rows).Error; err != nil {
		log.Printf("[ERROR] Failed to record %d orphaned %s objects: %v", len(rows), kind, err)
	}
}
