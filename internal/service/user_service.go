package service

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"
	"golang.org/x/time/rate"

	"library-lending/internal/domain"
	"library-lending/internal/errors"
)

// UserService manages staff accounts and credential verification. Passwords
// are hashed with salted Argon2id; login attempts are rate limited per
// username.
type UserService struct {
	store  domain.Store
	logger *slog.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	newLimit func() *rate.Limiter
}

func NewUserService(store domain.Store, logger *slog.Logger) *UserService {
	return &UserService{
		store:    store,
		logger:   logger,
		limiters: make(map[string]*rate.Limiter),
		newLimit: func() *rate.Limiter {
			return rate.NewLimiter(rate.Every(12*time.Second), 5) // 5 attempts, refill one per 12s
		},
	}
}

type RegisterRequest struct {
	Username string
	Email    string
	Password string
	Role     domain.Role
}

func (s *UserService) Register(req RegisterRequest) (*domain.User, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)
	if username == "" || email == "" {
		return nil, errors.NewAppError(errors.InvalidInput, "username and email are required")
	}
	if len(req.Password) < 8 {
		return nil, errors.NewAppError(errors.InvalidInput, "password must be at least 8 characters")
	}
	if !req.Role.Valid() {
		return nil, errors.NewAppError(errors.InvalidInput, "unknown role")
	}

	hash, salt, err := hashPassword(req.Password)
	if err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to hash password").WithDetails(err.Error())
	}

	user := &domain.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		PasswordSalt: salt,
		Role:         req.Role,
	}
	if err := s.store.Users().CreateUser(user); err != nil {
		return nil, err
	}

	s.logger.Info("User registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// Authenticate verifies credentials and returns the account. A wrong
// password and an unknown username produce the same error.
func (s *UserService) Authenticate(username, password string) (*domain.User, error) {
	if !s.allowAttempt(username) {
		s.logger.Warn("Login rate limit hit", "username", username)
		return nil, errors.ErrTooManyAttempts
	}

	user, err := s.store.Users().GetUserByUsername(username)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok && appErr.Code == errors.NotFound {
			return nil, errors.ErrInvalidLogin
		}
		return nil, err
	}

	ok, err := verifyPassword(password, user.PasswordSalt, user.PasswordHash)
	if err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to verify password").WithDetails(err.Error())
	}
	if !ok {
		return nil, errors.ErrInvalidLogin
	}

	s.logger.Info("User authenticated", "user_id", user.ID)
	return user, nil
}

func (s *UserService) allowAttempt(username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	limiter, ok := s.limiters[username]
	if !ok {
		limiter = s.newLimit()
		s.limiters[username] = limiter
	}
	return limiter.Allow()
}

// hashPassword generates a salted Argon2id hash of the password.
func hashPassword(password string) (string, string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", "", err
	}

	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)

	encodedHash := base64.StdEncoding.EncodeToString(hash)
	encodedSalt := base64.StdEncoding.EncodeToString(salt)

	return encodedHash, encodedSalt, nil
}

// verifyPassword compares a password with a salted hash.
func verifyPassword(password, salt, hash string) (bool, error) {
	decodedSalt, err := base64.StdEncoding.DecodeString(salt)
	if err != nil {
		return false, err
	}

	decodedHash, err := base64.StdEncoding.DecodeString(hash)
	if err != nil {
		return false, err
	}

	comparisonHash := argon2.IDKey([]byte(password), decodedSalt, 1, 64*1024, 4, 32)

	return subtle.ConstantTimeCompare(decodedHash, comparisonHash) == 1, nil
}
