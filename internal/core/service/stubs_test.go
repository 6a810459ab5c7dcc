package service

import (
	"context"
	"sort"
	"sync"

	"github.com/pureline/storefront-api/internal/core/domain"
	"github.com/pureline/storefront-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub users
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	users     map[string]*domain.User
	createErr error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	u, ok := r.users[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) CreateWithCart(_ context.Context, user *domain.User) error {
	if r.createErr != nil {
		return r.createErr
	}
	if _, exists := r.users[user.Email]; exists {
		return domain.ErrUserExists
	}
	clone := *user
	r.users[user.Email] = &clone
	return nil
}

// ---------------------------------------------------------------------------
// In-memory stub products
// ---------------------------------------------------------------------------

type stubProductRepo struct {
	mu       sync.Mutex
	products map[string]domain.Product
	findErr  error
}

func newStubProductRepo(products ...domain.Product) *stubProductRepo {
	r := &stubProductRepo{products: make(map[string]domain.Product)}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

func (r *stubProductRepo) List(context.Context) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubProductRepo) FindByID(_ context.Context, id string) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &p, nil
}

func (r *stubProductRepo) FindByIDs(_ context.Context, ids []string) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	var out []domain.Product
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *stubProductRepo) Create(_ context.Context, p *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = *p
	return nil
}

func (r *stubProductRepo) Update(_ context.Context, id string, patch domain.ProductPatch) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.ImageURL != nil {
		p.ImageURL = patch.ImageURL
	}
	r.products[id] = p
	return &p, nil
}

func (r *stubProductRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(r.products, id)
	return nil
}

// ---------------------------------------------------------------------------
// In-memory stub orders
// ---------------------------------------------------------------------------

// stubOrderRepo enforces the unique payment id the way the database does.
type stubOrderRepo struct {
	mu        sync.Mutex
	orders    []*domain.Order
	byPayment map[string]bool
	createErr error
	calls     int
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{byPayment: make(map[string]bool)}
}

func (r *stubOrderRepo) CreateWithItems(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.createErr != nil {
		return r.createErr
	}
	if r.byPayment[order.PaymentID] {
		return domain.ErrPaymentAlreadyProcessed
	}
	r.byPayment[order.PaymentID] = true
	clone := *order
	clone.Items = append([]domain.OrderItem(nil), order.Items...)
	r.orders = append(r.orders, &clone)
	return nil
}

func (r *stubOrderRepo) FindByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.ID == id {
			clone := *o
			return &clone, nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

func (r *stubOrderRepo) List(_ context.Context, userID string) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Order
	for i := len(r.orders) - 1; i >= 0; i-- {
		if userID == "" || r.orders[i].UserID == userID {
			out = append(out, *r.orders[i])
		}
	}
	return out, nil
}

func (r *stubOrderRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.orders)
}

// ---------------------------------------------------------------------------
// In-memory stub payment side channels
// ---------------------------------------------------------------------------

type stubGateway struct {
	validSignature string
	order          *ports.GatewayOrder
	err            error
	lastRequest    ports.GatewayOrderRequest
}

func (g *stubGateway) CreateOrder(_ context.Context, req ports.GatewayOrderRequest) (*ports.GatewayOrder, error) {
	g.lastRequest = req
	if g.err != nil {
		return nil, g.err
	}
	return g.order, nil
}

func (g *stubGateway) VerifySignature(_, _, signature string) bool {
	return signature == g.validSignature
}

func (g *stubGateway) KeyID() string { return "rzp_test_key" }

type stubReplayGuard struct {
	mu        sync.Mutex
	processed map[string]bool
	checkErr  error
	markErr   error
}

func newStubReplayGuard() *stubReplayGuard {
	return &stubReplayGuard{processed: make(map[string]bool)}
}

func (g *stubReplayGuard) IsProcessed(_ context.Context, id string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.checkErr != nil {
		return false, g.checkErr
	}
	return g.processed[id], nil
}

func (g *stubReplayGuard) MarkProcessed(_ context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.markErr != nil {
		return g.markErr
	}
	g.processed[id] = true
	return nil
}

type stubAudit struct {
	mu     sync.Mutex
	events []domain.PaymentEvent
	err    error
}

func (a *stubAudit) Record(_ context.Context, e *domain.PaymentEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, *e)
	return a.err
}

func (a *stubAudit) outcomes() []domain.PaymentOutcome {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.PaymentOutcome, 0, len(a.events))
	for _, e := range a.events {
		out = append(out, e.Outcome)
	}
	return out
}

type stubPublisher struct {
	mu        sync.Mutex
	published []string
	err       error
}

func (p *stubPublisher) PublishOrderConfirmed(_ context.Context, o *domain.Order) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, o.ID)
	return p.err
}
