// Package guid generates the project's identifier format and defines the
// fields every stored entity shares: guid, timestamps, tags and comment.
package guid

import (
	"crypto/rand"
	"encoding/base64"
	"time"
)

// New returns a 22-character URL-safe identifier: 128 random bits encoded
// with base64.RawURLEncoding (no padding), shorter and URL-safe by
// construction rather than a UUID string.
func New() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand.Read only fails if the OS entropy source is gone,
		// which means nothing else in the process can proceed either.
		panic("guid: crypto/rand unavailable: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// Base holds the fields common to every entity in the data model: its
// identifier, lifecycle timestamps, and the free-form tags/comment fields
// every store exposes for annotation.
type Base struct {
	GUID      string    `json:"guid" db:"guid"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
	Tags      string    `json:"tags" db:"tags"`
	Comment   string    `json:"comment" db:"comment"`
}

// NewBase returns a Base stamped with a fresh GUID and CreatedAt/UpdatedAt
// set to now.
func NewBase(now time.Time) Base {
	return Base{
		GUID:      New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// HasGUID is implemented by every entity so generic store helpers (lookup,
// logging context) can reference an entity's identifier without a type
// switch.
type HasGUID interface {
	GetGUID() string
}

func (b Base) GetGUID() string { return b.GUID }

// HasStatus is implemented by entities with a lifecycle (Search, Megadoc).
type HasStatus interface {
	HasGUID
	GetStatus() Status
}
