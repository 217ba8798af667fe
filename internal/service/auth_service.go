package service

import (
	"context"
	"fmt"
	"strings"

	"comuna-portal/internal/data"

	"golang.org/x/crypto/bcrypt"
)

// UserRepository defines the interface for database operations on users.
type UserRepository interface {
	Create(ctx context.Context, user *data.User) (int64, error)
	GetByEmail(ctx context.Context, email string) (*data.User, error)
	GetByID(ctx context.Context, id int64) (*data.User, error)
	Count(ctx context.Context) (int64, error)
}

// AuthServicer defines the interface for registration and login.
type AuthServicer interface {
	Register(ctx context.Context, name, email, password string) (*data.User, error)
	Login(ctx context.Context, email, password string) (*data.User, error)
}

// AuthService provides registration and credential verification.
type AuthService struct {
	users UserRepository
}

// NewAuthService creates a new AuthService with the given repository.
func NewAuthService(users UserRepository) *AuthService {
	return &AuthService{users: users}
}

// Register creates a new citizen account. The email is normalized to
// lowercase; only the bcrypt hash of the password is stored. Returns
// ErrDuplicateEmail if an account already exists for the email.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*data.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if fields := validateRegistration(name, email, password); len(fields) > 0 {
		return nil, NewValidationError(fields)
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing email: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateEmail
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &data.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         data.RoleCitizen,
	}
	id, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	user.ID = id
	return user, nil
}

// Login verifies the credentials and returns the user. Any mismatch,
// whether unknown email or wrong password, yields ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*data.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func validateRegistration(name, email, password string) map[string]string {
	fields := make(map[string]string)
	if len(name) < 2 {
		fields["name"] = "El nombre es obligatorio."
	}
	if email == "" || !strings.Contains(email, "@") {
		fields["email"] = "Correo inválido."
	}
	if len(password) < 6 {
		fields["password"] = "La contraseña debe tener al menos 6 caracteres."
	}
	return fields
}
