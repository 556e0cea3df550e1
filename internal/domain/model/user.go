package model

import (
	"time"

	"github.com/Taniishaaa/censor-pro/internal/domain/enums"
)

// User is an authentication identity. PasswordHash is nil for accounts
// created through federated login; GoogleID is nil for password accounts.
type User struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash *string    `json:"-"`
	GoogleID     *string    `json:"-"`
	Role         enums.Role `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
}
