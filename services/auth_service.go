package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"channel-chat/config"
	"channel-chat/models"
	"channel-chat/repository"
	"channel-chat/utils"

	"golang.org/x/crypto/bcrypt"
)

// Identity is the authenticated user a connection or request is bound to.
type Identity struct {
	UserID   uint
	Username string
}

type AuthService struct {
	users  repository.UserRepository
	config *config.Config
}

func NewAuthService(userRepo repository.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{users: userRepo, config: cfg}
}

func (s *AuthService) Register(ctx context.Context, username, password string) (*models.User, error) {
	if len(username) < 3 || len(username) > 20 {
		return nil, fmt.Errorf("%w: username must be between 3 and 20 characters", ErrInvalidInput)
	}
	if len(password) < 6 || len(password) > 72 {
		return nil, fmt.Errorf("%w: password must be between 6 and 72 characters", ErrInvalidInput)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Username: username,
		Password: string(hashed),
		Color:    utils.ColorFor(username),
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	if username == "" || password == "" {
		return "", nil, fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}

	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}
	token, err := s.CreateToken(u.ID, u.Username)
	return token, u, err
}

func (s *AuthService) CreateToken(userID uint, username string) (string, error) {
	expiry := time.Duration(s.config.JWTExpiry) * time.Hour
	return utils.GenerateJWT(s.config.JWTSecret, userID, username, expiry)
}

// ParseToken validates a bearer credential. Any failure is ErrUnauthenticated.
func (s *AuthService) ParseToken(token string) (Identity, error) {
	claims, err := utils.ParseJWT(s.config.JWTSecret, token)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	return Identity{UserID: claims.UserID, Username: claims.Username}, nil
}

func (s *AuthService) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}
