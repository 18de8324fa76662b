package store

import (
	"context"
	"errors"

	"desa-feedback-system/services/api-service/models"
)

var (
	// ErrNotFound is returned when no record matches the given identifier.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned on a unique-constraint violation.
	ErrDuplicate = errors.New("duplicate record")
)

// AdminStore persists admin credentials.
type AdminStore interface {
	Insert(ctx context.Context, admin models.Admin) (string, error)
	FindByUsername(ctx context.Context, username string) (models.Admin, error)
}

// LaporanStore persists citizen complaints.
type LaporanStore interface {
	Insert(ctx context.Context, l models.Laporan) (models.Laporan, error)
	// All returns every complaint, newest first.
	All(ctx context.Context) ([]models.Laporan, error)
	// UpdateTriage changes only the supplied fields; empty means unchanged.
	// The updated document is returned.
	UpdateTriage(ctx context.Context, id, status, priority string) (models.Laporan, error)
	// Delete removes the record and returns it as it was at deletion time.
	Delete(ctx context.Context, id string) (models.Laporan, error)
}

// PengumumanStore persists announcements.
type PengumumanStore interface {
	Insert(ctx context.Context, p models.Pengumuman) (models.Pengumuman, error)
	All(ctx context.Context) ([]models.Pengumuman, error)
	Get(ctx context.Context, id string) (models.Pengumuman, error)
	// Replace sets the text fields and the full attachment list, returning
	// the updated document.
	Replace(ctx context.Context, id, title, body string, attachments []models.Attachment) (models.Pengumuman, error)
	Delete(ctx context.Context, id string) (models.Pengumuman, error)
}
