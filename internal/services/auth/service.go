package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/Taniishaaa/censor-pro/internal/domain/enums"
	"github.com/Taniishaaa/censor-pro/internal/pkg/validate"
	pgrepo "github.com/Taniishaaa/censor-pro/internal/repo/postgres"
)

const minPasswordLength = 8

// UserStore is the persistence surface the credential flows need.
type UserStore interface {
	Create(ctx context.Context, name, email, passwordHash string) (pgrepo.UserRecord, error)
	FindByEmail(ctx context.Context, email string) (pgrepo.UserRecord, error)
	FindByID(ctx context.Context, userID int64) (pgrepo.UserRecord, error)
	GetOrCreateByGoogleID(ctx context.Context, googleID, email, name string) (pgrepo.UserRecord, error)
}

type Service struct {
	store UserStore
	jwt   *JWTManager
}

func NewService(store UserStore, jwt *JWTManager) *Service {
	return &Service{
		store: store,
		jwt:   jwt,
	}
}

func (s *Service) Register(ctx context.Context, name, email, password string) (AuthResult, error) {
	if s.store == nil || s.jwt == nil {
		return AuthResult{}, fmt.Errorf("auth dependencies are not configured")
	}

	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if !validate.Required(name) || !validate.Email(email) {
		return AuthResult{}, ErrInvalidInput
	}
	if len(password) < minPasswordLength {
		return AuthResult{}, ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.Create(ctx, name, email, string(hash))
	if err != nil {
		if errors.Is(err, pgrepo.ErrEmailTaken) {
			return AuthResult{}, ErrEmailTaken
		}
		return AuthResult{}, fmt.Errorf("create user: %w", err)
	}

	return s.issue(user)
}

func (s *Service) Login(ctx context.Context, email, password string) (AuthResult, error) {
	if s.store == nil || s.jwt == nil {
		return AuthResult{}, fmt.Errorf("auth dependencies are not configured")
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if !validate.Email(email) || password == "" {
		return AuthResult{}, ErrInvalidCredentials
	}

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, fmt.Errorf("find user: %w", err)
	}

	// Federated accounts carry no password hash and cannot log in with
	// credentials.
	if user.PasswordHash == nil {
		return AuthResult{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)) != nil {
		return AuthResult{}, ErrInvalidCredentials
	}

	return s.issue(user)
}

// Me returns the current profile of an authenticated user. Tokens outlive
// accounts, so a valid token whose user is gone reads as unauthorized.
func (s *Service) Me(ctx context.Context, userID int64) (Me, error) {
	if s.store == nil {
		return Me{}, fmt.Errorf("auth dependencies are not configured")
	}

	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return Me{}, ErrUnauthorized
		}
		return Me{}, fmt.Errorf("find user: %w", err)
	}

	return Me{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  enums.Role(user.Role),
	}, nil
}

func (s *Service) issue(user pgrepo.UserRecord) (AuthResult, error) {
	role := enums.Role(user.Role)
	token, expires, err := s.jwt.GenerateToken(user.ID, user.Email, role, user.Name)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue token: %w", err)
	}

	return AuthResult{
		Token:   token,
		Expires: expires,
		User: Me{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
			Role:  role,
		},
	}, nil
}
