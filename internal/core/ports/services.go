package ports

import (
	"context"
	"io"

	"github.com/shopspring/decimal"

	"github.com/pureline/storefront-api/internal/core/domain"
)

// TokenIssuer mints identity tokens.
type TokenIssuer interface {
	Issue(user *domain.User) (string, error)
}

// TokenVerifier decodes and validates identity tokens.
type TokenVerifier interface {
	Verify(token string) (*domain.Identity, error)
}

// PasswordHasher hashes and checks user passwords.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

type AuthService interface {
	Signup(ctx context.Context, email, name, password string) (string, error)
	Login(ctx context.Context, email, password string) (string, error)
}

// ProductInput carries the fields of a new catalog entry.
type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	ImageURL    *string
}

type ProductService interface {
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, in ProductInput) (*domain.Product, error)
	Update(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
}

// AddToCartResult reports whether the line was created or incremented.
type AddToCartResult struct {
	Item    *domain.CartItem
	Created bool
}

type CartService interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	Add(ctx context.Context, userID, productID string, quantity int) (*AddToCartResult, error)
	// UpdateItem sets the quantity of a line; zero removes it and reports
	// removed=true.
	UpdateItem(ctx context.Context, userID, itemID string, quantity int) (removed bool, err error)
	RemoveItem(ctx context.Context, userID, itemID string) error
}

type CheckoutService interface {
	BuyNow(ctx context.Context, in BuyNowInput) (*BuyNowResult, error)
	VerifyAndCreateOrder(ctx context.Context, userID string, claim PaymentClaim) (*domain.Order, error)
}

type OrderService interface {
	// List returns the caller's orders, or every order for administrators.
	List(ctx context.Context, caller *domain.Identity) ([]domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
	// Invoice renders the invoice of an order visible to the caller.
	Invoice(ctx context.Context, caller *domain.Identity, orderID string) ([]byte, error)
}

// InvoiceRenderer renders an order as a printable document.
type InvoiceRenderer interface {
	Render(order *domain.Order, w io.Writer) error
}
