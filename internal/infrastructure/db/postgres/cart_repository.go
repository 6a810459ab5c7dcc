package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/pureline/storefront-api/internal/core/domain"
	"github.com/pureline/storefront-api/internal/core/ports"
)

// CartRepository implements ports.CartRepository. Item mutations are scoped
// to the owning user through a subquery on carts.user_id.
type CartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) *CartRepository {
	return &CartRepository{db: db}
}

var _ ports.CartRepository = (*CartRepository)(nil)

func (r *CartRepository) FindByUserID(ctx context.Context, userID string) (*domain.Cart, error) {
	var cart domain.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Items.Product").
		Where("user_id = ?", userID).
		First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrCartNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *CartRepository) FindItem(ctx context.Context, cartID, productID string) (*domain.CartItem, error) {
	var item domain.CartItem
	err := r.db.WithContext(ctx).Where("cart_id = ? AND product_id = ?", cartID, productID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrCartItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *CartRepository) CreateItem(ctx context.Context, item *domain.CartItem) (*domain.CartItem, error) {
	if err := r.db.WithContext(ctx).Omit("Product").Create(item).Error; err != nil {
		return nil, err
	}
	return r.findItemByID(ctx, item.ID)
}

func (r *CartRepository) IncrementItem(ctx context.Context, itemID string, delta int) (*domain.CartItem, error) {
	res := r.db.WithContext(ctx).Model(&domain.CartItem{}).Where("id = ?", itemID).Updates(map[string]any{
		"quantity":   gorm.Expr("quantity + ?", delta),
		"updated_at": time.Now().UTC(),
	})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, domain.ErrCartItemNotFound
	}
	return r.findItemByID(ctx, itemID)
}

func (r *CartRepository) UpdateItemQuantity(ctx context.Context, userID, itemID string, quantity int) error {
	if !validID(itemID) {
		return domain.ErrCartItemNotFound
	}
	res := r.ownedItem(ctx, userID, itemID).Updates(map[string]any{
		"quantity":   quantity,
		"updated_at": time.Now().UTC(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrCartItemNotFound
	}
	return nil
}

func (r *CartRepository) DeleteItem(ctx context.Context, userID, itemID string) error {
	if !validID(itemID) {
		return domain.ErrCartItemNotFound
	}
	res := r.ownedItem(ctx, userID, itemID).Delete(&domain.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrCartItemNotFound
	}
	return nil
}

func (r *CartRepository) ownedItem(ctx context.Context, userID, itemID string) *gorm.DB {
	db := r.db.WithContext(ctx)
	owned := db.Model(&domain.Cart{}).Select("id").Where("user_id = ?", userID)
	return db.Model(&domain.CartItem{}).Where("id = ? AND cart_id IN (?)", itemID, owned)
}

func (r *CartRepository) findItemByID(ctx context.Context, id string) (*domain.CartItem, error) {
	var item domain.CartItem
	err := r.db.WithContext(ctx).Preload("Product").First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrCartItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}
