package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"desa-feedback-system/pkg/media"
)

// Attachment is one remote media object embedded in its owning record. The
// storage key identifies the object for deletion and is unique within the
// record; the kind travels with it because remote deletion is partitioned by
// kind.
type Attachment struct {
	URL          string     `bson:"url" json:"url"`
	StorageKey   string     `bson:"storage_key" json:"storageKey"`
	OriginalName string     `bson:"original_name,omitempty" json:"originalName,omitempty"`
	Kind         media.Kind `bson:"kind" json:"kind"`
}

// Complaint triage vocabulary. Defaults are assigned on insert.
const (
	StatusPending    = "pending"
	StatusInProgress = "in-progress"
	StatusResolved   = "resolved"
	StatusRejected   = "rejected"

	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusResolved, StatusRejected:
		return true
	}
	return false
}

func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Laporan is a citizen-submitted complaint or suggestion.
type Laporan struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Phone       string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Category    string             `bson:"category" json:"category"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Status      string             `bson:"status" json:"status"`
	Priority    string             `bson:"priority" json:"priority"`
	Attachments []Attachment       `bson:"attachments" json:"attachments"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// Pengumuman is an admin-published announcement.
type Pengumuman struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Body        string             `bson:"body" json:"body"`
	Attachments []Attachment       `bson:"attachments" json:"attachments"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// Admin is the operator credential. Created once via registration, never
// updated or deleted through this API.
type Admin struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username" json:"username"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
}

// LaporanEvent is published to the queue when a complaint is created.
type LaporanEvent struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}
