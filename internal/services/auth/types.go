package auth

import (
	"errors"
	"time"

	"github.com/Taniishaaa/censor-pro/internal/domain/enums"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

type AccessClaims struct {
	UserID    int64
	Email     string
	Role      enums.Role
	Name      string
	ExpiresAt time.Time
}

type AuthResult struct {
	Token   string
	Expires time.Time
	User    Me
}

type Me struct {
	ID    int64
	Name  string
	Email string
	Role  enums.Role
}
