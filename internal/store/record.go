package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Record is a stored document in a named collection. Doc keeps the legacy
// field shape verbatim; ordering queries index into it with jsonb operators.
type Record struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Collection string         `gorm:"size:50;not null;index" json:"-"`
	Doc        datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'" json:"doc"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// ProfileRecord is a subscription profile document keyed by identity ID.
type ProfileRecord struct {
	IdentityID string         `gorm:"size:36;primaryKey" json:"identity_id"`
	Doc        datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'" json:"doc"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}
