package ports

import (
	"context"

	"github.com/pureline/storefront-api/internal/core/domain"
)

// UserRepository defines persistence for users.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// CreateWithCart inserts the user and its empty cart in one transaction.
	CreateWithCart(ctx context.Context, user *domain.User) error
}

// ProductRepository defines persistence for the catalog.
type ProductRepository interface {
	List(ctx context.Context) ([]domain.Product, error)
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	// FindByIDs returns the products that exist among ids. Missing ids are
	// simply absent from the result; duplicates in ids are collapsed.
	FindByIDs(ctx context.Context, ids []string) ([]domain.Product, error)
	Create(ctx context.Context, p *domain.Product) error
	Update(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
}

// CartRepository defines persistence for carts and their lines. Every item
// level operation is scoped by the owning user id.
type CartRepository interface {
	FindByUserID(ctx context.Context, userID string) (*domain.Cart, error)
	FindItem(ctx context.Context, cartID, productID string) (*domain.CartItem, error)
	CreateItem(ctx context.Context, item *domain.CartItem) (*domain.CartItem, error)
	IncrementItem(ctx context.Context, itemID string, delta int) (*domain.CartItem, error)
	// UpdateItemQuantity and DeleteItem return domain.ErrCartItemNotFound when
	// no line with itemID exists in userID's cart.
	UpdateItemQuantity(ctx context.Context, userID, itemID string, quantity int) error
	DeleteItem(ctx context.Context, userID, itemID string) error
}

// OrderRepository defines persistence for order aggregates.
type OrderRepository interface {
	// CreateWithItems writes the order header and all of its items atomically.
	// A payment id that is already recorded yields domain.ErrPaymentAlreadyProcessed.
	CreateWithItems(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	// List returns orders newest first. An empty userID lists every order.
	List(ctx context.Context, userID string) ([]domain.Order, error)
}

// PaymentAuditRepository records payment verification attempts.
type PaymentAuditRepository interface {
	Record(ctx context.Context, event *domain.PaymentEvent) error
}
