package service

import (
	"assignment_desk/internal/common"
	"assignment_desk/internal/common/security"
	"assignment_desk/internal/domain/model"
	"assignment_desk/internal/domain/repository"
	"assignment_desk/internal/platform/session"
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	invalidCredentialsMessage = "Invalid username or password"
	msgPasswordTooLong        = "Password must be at most 72 bytes"
)

type AuthService struct {
	userRepo   repository.UserRepository
	tokens     *security.TokenAuth
	sessions   session.Store
	bcryptCost int
	dummyHash  string
}

func NewAuthService(userRepo repository.UserRepository, tokens *security.TokenAuth, sessions session.Store, bcryptCost int) *AuthService {
	// Compared against when the username is unknown so both failure paths
	// cost one bcrypt comparison.
	dummyHash, err := security.HashPassword(uuid.NewString(), bcryptCost)
	if err != nil {
		log.Printf("WARN: could not prepare dummy password hash: %v", err)
	}
	return &AuthService{
		userRepo:   userRepo,
		tokens:     tokens,
		sessions:   sessions,
		bcryptCost: bcryptCost,
		dummyHash:  dummyHash,
	}
}

type RegisterRequest struct {
	FullName        string `json:"fullName" validate:"required"`
	Username        string `json:"username" validate:"required"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
	IsAdmin         *bool  `json:"isAdmin" validate:"required"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResult is the public profile plus the session the handler turns into a cookie.
type AuthResult struct {
	Profile model.Profile
	Session *security.Session
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	if err := validateRequest(req, "All fields are required"); err != nil {
		return nil, err
	}
	if req.Password != req.ConfirmPassword {
		return nil, common.NewError(common.ErrValidation, "Passwords don't match")
	}
	if len(req.Password) > security.MaxPasswordBytes {
		return nil, common.NewError(common.ErrValidation, msgPasswordTooLong)
	}

	if _, err := s.userRepo.FindByUsername(ctx, req.Username); err == nil {
		return nil, common.NewError(common.ErrConflict, "Username already exists")
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, common.Errorf("failed to look up username: %w", err)
	}

	hashedPassword, err := security.HashPassword(req.Password, s.bcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, common.NewError(common.ErrValidation, msgPasswordTooLong)
	}
	if err != nil {
		return nil, common.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:             uuid.NewString(),
		FullName:       req.FullName,
		Username:       req.Username,
		HashedPassword: hashedPassword,
		IsAdmin:        *req.IsAdmin,
	}

	// The unique index still guards against a concurrent registration that
	// slipped past the lookup above; the repository maps it to ErrConflict.
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, common.Errorf("failed to create user: %w", err)
	}

	sess, err := s.tokens.GenerateToken(user.ID, user.IsAdmin)
	if err != nil {
		return nil, common.Errorf("failed to generate token: %w", err)
	}
	log.Printf("INFO: registered user %s (admin=%t)", user.ID, user.IsAdmin)
	return &AuthResult{Profile: user.Profile(), Session: sess}, nil
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	user, err := s.userRepo.FindByUsername(ctx, req.Username)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, common.Errorf("failed to find user: %w", err)
	}

	if user == nil {
		security.CheckPasswordHash(req.Password, s.dummyHash)
		return nil, common.NewError(common.ErrInvalidCredentials, invalidCredentialsMessage)
	}
	if req.Password == "" || !security.CheckPasswordHash(req.Password, user.HashedPassword) {
		return nil, common.NewError(common.ErrInvalidCredentials, invalidCredentialsMessage)
	}

	sess, err := s.tokens.GenerateToken(user.ID, user.IsAdmin)
	if err != nil {
		return nil, common.Errorf("failed to generate token: %w", err)
	}
	return &AuthResult{Profile: user.Profile(), Session: sess}, nil
}

// Logout revokes the session behind tokenString, if it is still valid. It
// never fails: a missing or broken token means there is nothing to revoke.
func (s *AuthService) Logout(ctx context.Context, tokenString string) {
	if tokenString == "" {
		return
	}
	claims, err := s.tokens.Decode(tokenString)
	if err != nil {
		return
	}
	tokenID, err := security.GetTokenIDFromClaims(claims)
	if err != nil {
		return
	}
	exp, err := security.GetExpiryFromClaims(claims)
	if err != nil {
		return
	}
	if err := s.sessions.Revoke(ctx, tokenID, exp); err != nil {
		log.Printf("ERROR: failed to revoke session %s: %v", tokenID, err)
	}
}

// IsSessionRevoked is consulted by the session guard on every request.
func (s *AuthService) IsSessionRevoked(ctx context.Context, tokenID string) (bool, error) {
	return s.sessions.IsRevoked(ctx, tokenID)
}

// CurrentUser resolves the authenticated caller. A session whose user no
// longer exists is treated as unauthenticated.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	return currentUser(ctx, s.userRepo, userID)
}

func currentUser(ctx context.Context, users repository.UserRepository, userID string) (*model.User, error) {
	user, err := users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NewError(common.ErrUnauthorized, "Unauthorized - User not found")
		}
		return nil, common.Errorf("failed to load user %s: %w", userID, err)
	}
	return user, nil
}
