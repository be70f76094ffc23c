package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the resource owner on whose behalf clients request access. User
// management itself lives outside the token core; this record is read-only
// here.
type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Name      string    `json:"name" db:"name"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
