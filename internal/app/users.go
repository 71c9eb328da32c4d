package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"farmlink/internal/util"
	"farmlink/pkg/auth"
	"farmlink/pkg/domain"
	"farmlink/pkg/store"
)

// RegisterParams carries the registration payload.
type RegisterParams struct {
	Type         domain.UserType
	Name         string
	Email        string
	Password     string
	Phone        string
	Location     string
	FarmName     string
	BusinessName string
}

// Register creates a user and returns it with a signed bearer token.
func (a *App) Register(p RegisterParams) (domain.User, string, error) {
	p.Email = strings.TrimSpace(strings.ToLower(p.Email))
	if err := validateRegistration(p); err != nil {
		return domain.User{}, "", err
	}
	exists, err := a.store.HasUserEmail(p.Email)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("check email: %w", err)
	}
	if exists {
		return domain.User{}, "", ErrEmailAlreadyExists
	}
	passwordHash, err := auth.HashPassword(p.Password)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("hash password: %w", err)
	}
	user := domain.User{
		ID:           util.NewID(),
		Type:         p.Type,
		Name:         strings.TrimSpace(p.Name),
		Email:        p.Email,
		PasswordHash: passwordHash,
		Phone:        p.Phone,
		Location:     p.Location,
		FarmName:     p.FarmName,
		BusinessName: p.BusinessName,
		CreatedAt:    time.Now().UTC(),
	}
	if err := a.store.SaveUser(user); err != nil {
		// The unique index catches registrations that raced past the
		// existence check.
		if errors.Is(err, store.ErrDuplicateEmail) {
			return domain.User{}, "", ErrEmailAlreadyExists
		}
		return domain.User{}, "", fmt.Errorf("save user: %w", err)
	}
	token, err := a.tokens.Issue(user)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("issue token: %w", err)
	}
	return user, token, nil
}

// Login validates credentials and returns the user with a signed bearer token.
func (a *App) Login(email, password string) (domain.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return domain.User{}, "", &ValidationError{Errors: []string{"Email and password required"}}
	}
	user, ok, err := a.store.GetUserByEmail(email)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("fetch user: %w", err)
	}
	if !ok {
		return domain.User{}, "", ErrInvalidCredentials
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		return domain.User{}, "", ErrInvalidCredentials
	}
	token, err := a.tokens.Issue(user)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("issue token: %w", err)
	}
	return user, token, nil
}

// GetUser returns a user by id.
func (a *App) GetUser(id string) (domain.User, error) {
	user, ok, err := a.store.GetUserByID(id)
	if err != nil {
		return domain.User{}, fmt.Errorf("fetch user: %w", err)
	}
	if !ok {
		return domain.User{}, ErrNotFound
	}
	return user, nil
}

// ListUsers returns all users.
func (a *App) ListUsers() ([]domain.User, error) {
	return a.store.ListUsers()
}
