package usecase

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/orientis/orientis/internal/domain"
)

// bcryptCost matches the cost used when the user base was first created.
const bcryptCost = 10

// AuthService handles registration, login and profile management.
// Token issuing lives in the HTTP layer; this service only deals with
// credentials and user records.
type AuthService struct {
	Users domain.UserRepository
}

func NewAuthService(users domain.UserRepository) *AuthService {
	return &AuthService{Users: users}
}

// Register creates a new account. The email must be unused.
func (s *AuthService) Register(ctx domain.Context, email, password, name string) (domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := s.Users.GetByEmail(ctx, email); err == nil {
		return domain.User{}, fmt.Errorf("op=auth.Register: email taken: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, fmt.Errorf("op=auth.Register: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("op=auth.Register: hash: %w", err)
	}

	u := domain.User{Email: email, PasswordHash: string(hash), Name: name}
	id, err := s.Users.Create(ctx, u)
	if err != nil {
		return domain.User{}, fmt.Errorf("op=auth.Register: %w", err)
	}
	u.ID = id
	return u, nil
}

// Login verifies credentials and returns the account. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx domain.Context, email, password string) (domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, fmt.Errorf("op=auth.Login: %w", domain.ErrUnauthorized)
		}
		return domain.User{}, fmt.Errorf("op=auth.Login: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, fmt.Errorf("op=auth.Login: %w", domain.ErrUnauthorized)
	}
	return u, nil
}

// Profile returns the account for an authenticated user id.
func (s *AuthService) Profile(ctx domain.Context, userID string) (domain.User, error) {
	u, err := s.Users.Get(ctx, userID)
	if err != nil {
		return domain.User{}, fmt.Errorf("op=auth.Profile: %w", err)
	}
	return u, nil
}

// ProfileUpdate carries the editable profile fields.
type ProfileUpdate struct {
	Name     string
	Phone    string
	Location string
	Bio      string
}

// UpdateProfile replaces the editable fields and returns the stored user.
func (s *AuthService) UpdateProfile(ctx domain.Context, userID string, upd ProfileUpdate) (domain.User, error) {
	u, err := s.Users.Get(ctx, userID)
	if err != nil {
		return domain.User{}, fmt.Errorf("op=auth.UpdateProfile: %w", err)
	}
	u.Name = upd.Name
	u.Phone = upd.Phone
	u.Location = upd.Location
	u.Bio = upd.Bio
	out, err := s.Users.UpdateProfile(ctx, u)
	if err != nil {
		return domain.User{}, fmt.Errorf("op=auth.UpdateProfile: %w", err)
	}
	return out, nil
}
