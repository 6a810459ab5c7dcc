package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pureline/storefront-api/internal/core/domain"
	"github.com/pureline/storefront-api/internal/core/ports"
)

// UserRepository implements ports.UserRepository.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

var _ ports.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateWithCart inserts the user and its empty cart in one transaction. A
// concurrent signup with the same email surfaces as domain.ErrUserExists.
func (r *UserRepository) CreateWithCart(ctx context.Context, user *domain.User) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		cart := &domain.Cart{
			ID:        uuid.NewString(),
			UserID:    user.ID,
			CreatedAt: user.CreatedAt,
			UpdatedAt: user.CreatedAt,
		}
		return tx.Omit("Items").Create(cart).Error
	})
	if isUniqueViolation(err) {
		return domain.ErrUserExists
	}
	return err
}
