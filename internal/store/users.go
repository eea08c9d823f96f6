package store

import (
	"errors"
	"strings"
	"time"

	"github.com/AFlo59/CompareModelPoc-sub000/internal/models"
	apperrors "github.com/AFlo59/CompareModelPoc-sub000/pkg/errors"

	"gorm.io/gorm"
)

var (
	ErrUserAlreadyExists  = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser registers a new user. The email is normalized and the
// password hashed by the model hook.
func (s *Store) CreateUser(req *models.CreateUserRequest) (*models.User, error) {
	var existing int64
	if err := s.db.Model(&models.User{}).Where("email = ?", normalizeEmail(req.Email)).Count(&existing).Error; err != nil {
		return nil, apperrors.NewStorageError(err.Error())
	}
	if existing > 0 {
		return nil, ErrUserAlreadyExists
	}

	user := models.User{
		Email:    req.Email,
		Password: req.Password,
		IsActive: true,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, apperrors.NewStorageError(err.Error())
	}
	return &user, nil
}

// Authenticate verifies the credentials and records the login time.
func (s *Store) Authenticate(req *models.LoginRequest) (*models.User, error) {
	var user models.User
	err := s.db.Where("email = ? AND is_active = ?", normalizeEmail(req.Email), true).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, apperrors.NewStorageError(err.Error())
	}

	if !models.CheckPasswordHash(req.Password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	user.LastLogin = time.Now()
	if err := s.db.Model(&user).Update("last_login", user.LastLogin).Error; err != nil {
		s.log.Warn("failed to record login time", "user_id", user.ID, "error", err)
	}
	return &user, nil
}

// GetUser loads an active user by id.
func (s *Store) GetUser(id uint) (*models.User, error) {
	var user models.User
	err := s.db.Where("id = ? AND is_active = ?", id, true).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("user not found")
		}
		return nil, apperrors.NewStorageError(err.Error())
	}
	return &user, nil
}

// DeactivateUser soft-deletes a user. Owned rows stay in place and are
// filtered out by the is_active checks on read paths.
func (s *Store) DeactivateUser(id uint) error {
	res := s.db.Model(&models.User{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		return apperrors.NewStorageError(res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return apperrors.NewNotFoundError("user not found")
	}
	s.cacheDelete(keyUserCampaigns(id), keyUserCharacters(id), keyModelChoice(id))
	return nil
}
