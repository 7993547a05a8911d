package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mustafamaahir/Meeting-Minutes/internal/model"
	"github.com/mustafamaahir/Meeting-Minutes/internal/repository"
	"github.com/mustafamaahir/Meeting-Minutes/pkg/database"
	"github.com/mustafamaahir/Meeting-Minutes/pkg/hash"
	"github.com/mustafamaahir/Meeting-Minutes/pkg/log"
	"github.com/mustafamaahir/Meeting-Minutes/pkg/token"
)

// UserService defines the account operations.
type UserService interface {
	Register(username, email, password, role string) (*model.User, error)
	Login(username, password string) (accessToken, refreshToken string, err error)
	GetProfile(username string) (*model.User, error)
	Logout(tokenString string) error
	RefreshToken(refreshTokenString string) (newAccessToken, newRefreshToken string, err error)
}

// userService is the implementation of UserService.
type userService struct {
	userRepo   repository.UserRepository
	jwtManager *token.JWTManager
}

// NewUserService creates a new UserService instance.
func NewUserService(userRepo repository.UserRepository, jwtManager *token.JWTManager) UserService {
	return &userService{
		userRepo:   userRepo,
		jwtManager: jwtManager,
	}
}

// Register creates a new account. An empty role defaults to the regular
// user role; anything other than the three known roles is rejected.
func (s *userService) Register(username, email, password, role string) (*model.User, error) {
	// 1. Resolve and validate the role.
	if role == "" {
		role = model.RoleUser
	}
	if role != model.RoleAdmin && role != model.RoleSecretary && role != model.RoleUser {
		return nil, ErrInvalidRole
	}

	// 2. Reject taken usernames.
	_, err := s.userRepo.FindByUsername(username)
	if err == nil {
		return nil, ErrUserExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 3. Reject taken email addresses.
	_, err = s.userRepo.FindByEmail(email)
	if err == nil {
		return nil, ErrUserExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 4. Hash the password.
	hashedPassword, err := hash.HashPassword(password)
	if err != nil {
		return nil, err
	}

	// 5. Persist the new user.
	newUser := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         role,
	}
	if err := s.userRepo.Create(newUser); err != nil {
		log.Errorf("[UserService] failed to create user, username: %s, error: %v", username, err)
		return nil, err
	}

	log.Infof("[UserService] registered user %s with role %s", username, role)
	return newUser, nil
}

// Login checks the credentials and issues an access/refresh token pair.
func (s *userService) Login(username, password string) (accessToken, refreshToken string, err error) {
	// 1. Look the user up.
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", ErrInvalidCredentials
		}
		return "", "", err
	}

	// 2. Verify the password.
	if !hash.CheckPasswordHash(password, user.PasswordHash) {
		return "", "", ErrInvalidCredentials
	}

	// 3. Issue the token pair.
	accessToken, err = s.jwtManager.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		return "", "", err
	}
	refreshToken, err = s.jwtManager.GenerateRefreshToken(user.ID, user.Username, user.Role)
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

// GetProfile returns the account details for a username.
func (s *userService) GetProfile(username string) (*model.User, error) {
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Logout puts the token on the Redis blacklist. The remaining token
// lifetime becomes the key's expiration, after which the entry is useless
// anyway.
func (s *userService) Logout(tokenString string) error {
	claims, err := s.jwtManager.VerifyToken(tokenString)
	if err != nil {
		return err
	}
	expiration := time.Until(claims.ExpiresAt.Time)
	return database.RDB.Set(context.Background(), "blacklist:"+tokenString, "true", expiration).Err()
}

// RefreshToken validates the refresh token and issues a fresh pair.
func (s *userService) RefreshToken(refreshTokenString string) (newAccessToken, newRefreshToken string, err error) {
	// 1. Verify the refresh token.
	claims, err := s.jwtManager.VerifyToken(refreshTokenString)
	if err != nil {
		return "", "", errors.New("invalid refresh token")
	}

	// 2. Make sure the user still exists.
	user, err := s.userRepo.FindByUsername(claims.Username)
	if err != nil {
		return "", "", errors.New("user not found")
	}

	// 3. Issue the new pair.
	newAccessToken, err = s.jwtManager.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		return "", "", err
	}
	newRefreshToken, err = s.jwtManager.GenerateRefreshToken(user.ID, user.Username, user.Role)
	if err != nil {
		return "", "", err
	}

	return newAccessToken, newRefreshToken, nil
}
