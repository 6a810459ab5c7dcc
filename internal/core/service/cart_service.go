package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pureline/storefront-api/internal/core/domain"
	"github.com/pureline/storefront-api/internal/core/ports"
)

type CartService struct {
	carts    ports.CartRepository
	products ports.ProductRepository
	log      zerolog.Logger
}

func NewCartService(carts ports.CartRepository, products ports.ProductRepository, log zerolog.Logger) *CartService {
	return &CartService{carts: carts, products: products, log: log}
}

// Get returns the user's cart with every line and its product.
func (s *CartService) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	return s.carts.FindByUserID(ctx, userID)
}

// Add puts quantity units of a product in the cart, merging with an existing
// line for the same product.
func (s *CartService) Add(ctx context.Context, userID, productID string, quantity int) (*ports.AddToCartResult, error) {
	if productID == "" || quantity <= 0 {
		return nil, domain.Invalid("Missing productId or quantity")
	}

	cart, err := s.carts.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, err
	}

	existing, err := s.carts.FindItem(ctx, cart.ID, productID)
	switch {
	case err == nil:
		item, err := s.carts.IncrementItem(ctx, existing.ID, quantity)
		if err != nil {
			return nil, err
		}
		return &ports.AddToCartResult{Item: item}, nil
	case !errors.Is(err, domain.ErrCartItemNotFound):
		return nil, err
	}

	now := time.Now().UTC()
	item, err := s.carts.CreateItem(ctx, &domain.CartItem{
		ID:        uuid.NewString(),
		CartID:    cart.ID,
		ProductID: productID,
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, err
	}
	return &ports.AddToCartResult{Item: item, Created: true}, nil
}

// UpdateItem sets a line's quantity. Zero removes the line.
func (s *CartService) UpdateItem(ctx context.Context, userID, itemID string, quantity int) (bool, error) {
	if itemID == "" {
		return false, domain.Invalid("Item ID is required in URL")
	}
	if quantity < 0 {
		return false, domain.Invalid("Invalid quantity provided")
	}

	if quantity == 0 {
		if err := s.carts.DeleteItem(ctx, userID, itemID); err != nil {
			return false, err
		}
		return true, nil
	}

	if err := s.carts.UpdateItemQuantity(ctx, userID, itemID, quantity); err != nil {
		return false, err
	}
	return false, nil
}

func (s *CartService) RemoveItem(ctx context.Context, userID, itemID string) error {
	if itemID == "" {
		return domain.Invalid("Item ID is required in URL")
	}
	return s.carts.DeleteItem(ctx, userID, itemID)
}
