package repositories

import "akun/internal/models"

// UserRepository defines the interface for account data access. Lookups
// return (nil, nil) when no record matches: absence is an explicit nil at
// this boundary, never an error. Insert and the password operations hash
// the supplied plaintext before it touches the store.
type UserRepository interface {
	Insert(user *models.User) error
	GetByEmail(email string) (*models.User, error)
	GetByID(id string) (*models.User, error)
	GetAll() ([]models.User, error)
	ResetPasswordByEmail(email, newPassword string) (*models.User, error)
	// UpdatePassword is the password-change path. It delegates to
	// ResetPasswordByEmail; the separate name keeps change and reset
	// distinguishable at the service call sites.
	UpdatePassword(email, newPassword string) error
	Edit(id string, data *models.UserEdit) (*models.User, error)
	Delete(id string) error
}
