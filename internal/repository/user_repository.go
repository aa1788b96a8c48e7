package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/evergrid/contracts-service/internal/model"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, email, full_name, created_at, updated_at
		FROM users
		WHERE email = ?
		LIMIT 1
	`, email).Scan(&user).Error
	if err != nil {
		return nil, err
	}
	if user.Email == "" {
		return nil, gorm.ErrRecordNotFound
	}
	return &user, nil
}

func (r *UserRepository) CreateUser(ctx context.Context, email, fullName string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO users (email, full_name)
		VALUES (?, ?)
		RETURNING id, email, full_name, created_at, updated_at
	`, email, fullName).Scan(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetOrCreateUser resolves a verified identity to a user row, creating
// it on first sight. Concurrent first requests may race on the unique
// email index; the loser retries the lookup.
func (r *UserRepository) GetOrCreateUser(ctx context.Context, email, fullName string) (*model.User, error) {
	user, err := r.GetUserByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	user, err = r.CreateUser(ctx, email, fullName)
	if err != nil {
		if existing, lookupErr := r.GetUserByEmail(ctx, email); lookupErr == nil {
			return existing, nil
		}
		return nil, err
	}
	return user, nil
}
