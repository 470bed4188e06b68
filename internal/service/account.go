package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"inkpost/internal/apperr"
	"inkpost/internal/models"
	"inkpost/internal/store"
)

// TokenIssuer signs and verifies bearer tokens.
type TokenIssuer interface {
	Issue(userID uuid.UUID) (string, error)
	Parse(token string) (uuid.UUID, error)
}

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginInput carries login credentials.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// AccountService handles registration, login and bearer-token resolution.
type AccountService struct {
	users  UserRepository
	tokens TokenIssuer
}

// NewAccountService creates an AccountService.
func NewAccountService(users UserRepository, tokens TokenIssuer) *AccountService {
	return &AccountService{users: users, tokens: tokens}
}

// Register creates a regular user and signs them in. Accounts created here
// never receive the admin role.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := check(in); err != nil {
		return nil, err
	}

	existing, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, apperr.InternalError(err)
	}
	if existing != nil {
		return nil, apperr.Conflictf("email is already registered")
	}

	user, err := s.users.Create(ctx, in.Name, in.Email, in.Password, models.RoleUser)
	if errors.Is(err, store.ErrDuplicate) {
		return nil, apperr.Wrap(apperr.Conflict, err, "email is already registered")
	}
	if err != nil {
		return nil, apperr.InternalError(err)
	}
	return s.signIn(user)
}

// Login verifies credentials. Unknown emails and wrong passwords fail the
// same way.
func (s *AccountService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return nil, apperr.BadRequestf("please provide an email and password")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, apperr.InternalError(err)
	}
	if user == nil {
		return nil, apperr.Unauthenticatedf("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, apperr.Unauthenticatedf("invalid credentials")
	}
	return s.signIn(user)
}

// Me returns the caller's account.
func (s *AccountService) Me(ctx context.Context, identity *models.Identity) (*models.User, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, identity.UserID)
	if err != nil {
		return nil, apperr.InternalError(err)
	}
	if user == nil {
		return nil, apperr.Unauthenticatedf("not authorized to access this route")
	}
	return user, nil
}

// Authenticate resolves a bearer token to the caller's identity. Bad
// tokens and tokens for deleted users fail identically.
func (s *AccountService) Authenticate(ctx context.Context, token string) (*models.Identity, error) {
	userID, err := s.tokens.Parse(token)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unauthenticated, err, "not authorized to access this route")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, apperr.InternalError(err)
	}
	if user == nil {
		return nil, apperr.Unauthenticatedf("not authorized to access this route")
	}
	return &models.Identity{UserID: user.ID, Role: user.Role}, nil
}

func (s *AccountService) signIn(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, apperr.InternalError(err)
	}
	return &AuthResult{Token: token, User: user}, nil
}
