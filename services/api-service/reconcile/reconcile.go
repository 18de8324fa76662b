// Package reconcile keeps remote media in step with the record that owns it.
// When an announcement is edited or a record deleted, it computes which
// stored objects became orphans and removes them, partitioned by media kind
// because the remote's bulk-deletion API takes exactly one kind per call.
package reconcile

import (
	"encoding/json"
	"errors"
	"strings"

	"desa-feedback-system/pkg/media"
	"desa-feedback-system/services/api-service/models"
)

// KeepRef is one attachment the client wants to keep on update. Only the
// storage key matters for matching; the kept entry itself always comes from
// the stored record, never from the client.
type KeepRef struct {
	StorageKey string `json:"storageKey"`
}

var errMissingKey = errors.New("existingFiles entry missing storageKey")

// ParseKeepList decodes the client-supplied existingFiles payload. An empty
// payload means keep nothing; anything that is not a list of objects with a
// storageKey is an error.
func ParseKeepList(raw string) ([]KeepRef, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var refs []KeepRef
	if err := json.Unmarshal([]byte(raw), &refs); err != nil {
		return nil, err
	}
	for _, ref := range refs {
		if ref.StorageKey == "" {
			return nil, errMissingKey
		}
	}
	return refs, nil
}

// Diff splits the stored attachments into the ones the keep-list retains and
// the ones to delete remotely. Kept entries follow keep-list order; keep
// refs that match no stored attachment are ignored, so a client cannot graft
// foreign objects onto a record. Duplicated keep refs count once.
func Diff(old []models.Attachment, keep []KeepRef) (kept, dropped []models.Attachment) {
	byKey := make(map[string]models.Attachment, len(old))
	for _, att := range old {
		byKey[att.StorageKey] = att
	}

	keptKeys := make(map[string]bool, len(keep))
	for _, ref := range keep {
		att, ok := byKey[ref.StorageKey]
		if !ok || keptKeys[ref.StorageKey] {
			continue
		}
		keptKeys[ref.StorageKey] = true
		kept = append(kept, att)
	}

	for _, att := range old {
		if !keptKeys[att.StorageKey] {
			dropped = append(dropped, att)
		}
	}
	return kept, dropped
}

// Partition groups storage keys by media kind. Entries with a missing or
// unrecognized kind land in the raw group.
func Partition(atts []models.Attachment) map[media.Kind][]string {
	groups := make(map[media.Kind][]string, 3)
	for _, att := range atts {
		kind := media.Normalize(att.Kind)
		groups[kind] = append(groups[kind], att.StorageKey)
	}
	return groups
}

// Merge appends newly uploaded attachments after the kept ones, preserving
// both orders.
func Merge(kept, uploaded []models.Attachment) []models.Attachment {
	final := make([]models.Attachment, 0, len(kept)+len(uploaded))
	final = append(final, kept...)
	return append(final, uploaded...)
}
