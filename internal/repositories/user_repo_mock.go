package repositories

import (
	"fmt"
	"sync"

	"akun/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// MockUserRepository is an in-memory implementation of UserRepository. It
// honors the same contracts as the GORM implementation, including hashing
// on insert and reset.
type MockUserRepository struct {
	users map[string]models.User
	mu    sync.RWMutex
}

// NewMockUserRepository creates a new instance of MockUserRepository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]models.User),
	}
}

// Insert hashes the password and stores a new user.
func (r *MockUserRepository) Insert(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	for _, u := range r.users {
		if u.Email == user.Email {
			return fmt.Errorf("user with email %s already exists", user.Email)
		}
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashed)
	if user.Role == "" {
		user.Role = "user"
	}

	r.users[user.ID] = *user
	return nil
}

// GetByEmail returns the user with that email, or (nil, nil) if absent.
func (r *MockUserRepository) GetByEmail(email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, nil
}

// GetByID returns the user with that id, or (nil, nil) if absent.
func (r *MockUserRepository) GetByID(id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

// GetAll returns all users.
func (r *MockUserRepository) GetAll() ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userList := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		userList = append(userList, u)
	}
	return userList, nil
}

// ResetPasswordByEmail hashes newPassword onto the matching record.
func (r *MockUserRepository) ResetPasswordByEmail(email, newPassword string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, u := range r.users {
		if u.Email == email {
			hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
			if err != nil {
				return nil, fmt.Errorf("failed to hash password: %w", err)
			}
			u.Password = string(hashed)
			r.users[id] = u
			user := u
			return &user, nil
		}
	}
	return nil, fmt.Errorf("user with email %s not found for password reset", email)
}

// UpdatePassword delegates to ResetPasswordByEmail.
func (r *MockUserRepository) UpdatePassword(email, newPassword string) error {
	_, err := r.ResetPasswordByEmail(email, newPassword)
	return err
}

// Edit updates role, fullname and profile_url on the matching record. Nil
// fields keep their stored values.
func (r *MockUserRepository) Edit(id string, data *models.UserEdit) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user with ID %s not found for edit", id)
	}
	if data.Role != nil {
		u.Role = *data.Role
	}
	if data.Fullname != nil {
		u.Fullname = *data.Fullname
	}
	if data.ProfileURL != nil {
		u.ProfileURL = *data.ProfileURL
	}
	r.users[id] = u
	user := u
	return &user, nil
}

// Delete removes the record with that id.
func (r *MockUserRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return fmt.Errorf("user with ID %s not found for deletion", id)
	}
	delete(r.users, id)
	return nil
}
