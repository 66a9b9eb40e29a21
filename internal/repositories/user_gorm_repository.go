package repositories

import (
	"fmt"

	"akun/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// Insert hashes the plaintext password on user and persists the record. The
// generated id and the hash are written back onto user.
func (r *GORMUserRepository) Insert(user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashed)

	if err := r.db.Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByEmail retrieves a user by email. Returns (nil, nil) when no user has
// that email.
func (r *GORMUserRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "email = ?", email).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email %s: %w", email, err)
	}
	return &user, nil
}

// GetByID retrieves a user by id. Returns (nil, nil) when no user has that id.
func (r *GORMUserRepository) GetByID(id string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by ID %s: %w", id, err)
	}
	return &user, nil
}

// GetAll retrieves all users, unfiltered.
func (r *GORMUserRepository) GetAll() ([]models.User, error) {
	var users []models.User
	if err := r.db.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to get all users: %w", err)
	}
	return users, nil
}

// ResetPasswordByEmail hashes newPassword and stores it on the record with
// that email, returning the updated record. Fails if no record matches.
func (r *GORMUserRepository) ResetPasswordByEmail(email, newPassword string) (*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	res := r.db.Model(&models.User{}).Where("email = ?", email).Update("password", string(hashed))
	if res.Error != nil {
		return nil, fmt.Errorf("failed to reset password for %s: %w", email, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("user with email %s not found for password reset", email)
	}

	user, err := r.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdatePassword is the password-change path; it delegates to
// ResetPasswordByEmail.
func (r *GORMUserRepository) UpdatePassword(email, newPassword string) error {
	_, err := r.ResetPasswordByEmail(email, newPassword)
	return err
}

// Edit updates the role, fullname and profile_url fields of the record with
// that id and returns the updated record. Only fields present on data are
// written; a nil field keeps its stored value.
func (r *GORMUserRepository) Edit(id string, data *models.UserEdit) (*models.User, error) {
	updates := map[string]interface{}{}
	if data.Role != nil {
		updates["role"] = *data.Role
	}
	if data.Fullname != nil {
		updates["fullname"] = *data.Fullname
	}
	if data.ProfileURL != nil {
		updates["profile_url"] = *data.ProfileURL
	}

	if len(updates) > 0 {
		res := r.db.Model(&models.User{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, fmt.Errorf("failed to edit user %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, fmt.Errorf("user with ID %s not found for edit", id)
		}
	}

	user, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user with ID %s not found for edit", id)
	}
	return user, nil
}

// Delete destroys the record with that id. Unscoped bypasses the soft
// delete gorm.Model would otherwise apply, so the row is gone and its email
// can be registered again. Fails if no record matches.
func (r *GORMUserRepository) Delete(id string) error {
	res := r.db.Unscoped().Delete(&models.User{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete user %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user with ID %s not found for deletion", id)
	}
	return nil
}
