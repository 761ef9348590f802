// Package memory implements an in-memory store for development and testing.
package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"hyperlocal/internal/domain"
	"hyperlocal/internal/pool"
)

// DB implements every domain repository over process memory.
type DB struct {
	mu          sync.Mutex
	users       []*domain.User
	products    []domain.Product
	categories  []domain.Category
	banners     []domain.Banner
	carts       map[uint64][]domain.CartItem
	orders      []domain.Order
	withdrawals []domain.Withdrawal
	updates     []domain.SystemUpdate

	lastID     uint64
	queryDelay time.Duration
}

// New creates an empty in-memory database.
func New() *DB {
	return &DB{carts: make(map[uint64][]domain.CartItem)}
}

// Ensure interfaces are met.
var (
	_ domain.UserRepository         = (*DB)(nil)
	_ domain.CatalogRepository      = (*DB)(nil)
	_ domain.CartRepository         = (*DB)(nil)
	_ domain.OrderRepository        = (*DB)(nil)
	_ domain.WithdrawalRepository   = (*DB)(nil)
	_ domain.SystemUpdateRepository = (*DB)(nil)
)

// SetQueryDelay makes product listings take at least d, emulating a slow query.
func (db *DB) SetQueryDelay(d time.Duration) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.queryDelay = d
}

func (db *DB) nextID() uint64 {
	db.lastID++
	return db.lastID
}

func (db *DB) wait(ctx context.Context) error {
	db.mu.Lock()
	d := db.queryDelay
	db.mu.Unlock()
	if d <= 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func window[T any](items []T, p domain.Page) []T {
	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + p.PerPage
	if end > len(items) {
		end = len(items)
	}
	out := make([]T, end-start)
	copy(out, items[start:end])
	return out
}

// AddProduct seeds a product and returns it with its assigned ID.
func (db *DB) AddProduct(p domain.Product) domain.Product {
	db.mu.Lock()
	defer db.mu.Unlock()
	p.ID = db.nextID()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	db.products = append(db.products, p)
	return p
}

// AddBanner seeds a banner.
func (db *DB) AddBanner(b domain.Banner) domain.Banner {
	db.mu.Lock()
	defer db.mu.Unlock()
	b.ID = db.nextID()
	db.banners = append(db.banners, b)
	return b
}

// AddWithdrawal seeds a withdrawal request.
func (db *DB) AddWithdrawal(w domain.Withdrawal) domain.Withdrawal {
	db.mu.Lock()
	defer db.mu.Unlock()
	w.ID = db.nextID()
	if w.Status == "" {
		w.Status = domain.WithdrawalPending
	}
	now := time.Now().UTC()
	w.CreatedAt, w.UpdatedAt = now, now
	db.withdrawals = append(db.withdrawals, w)
	return w
}

// --- UserRepository ---

// GetByEmail retrieves a user by exact email.
func (db *DB) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

// GetByEmailAndPanel retrieves a user by exact email and access panel.
func (db *DB) GetByEmailAndPanel(ctx context.Context, email, panel string) (*domain.User, error) {
	u, err := db.GetByEmail(ctx, email)
	if err != nil || u == nil {
		return nil, err
	}
	if u.AccessPanel == nil || *u.AccessPanel != panel {
		return nil, nil
	}
	return u, nil
}

// GetByID retrieves a user by ID.
func (db *DB) GetByID(ctx context.Context, id uint64) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

// Create inserts a user.
func (db *DB) Create(ctx context.Context, nu domain.NewUser) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Email == nu.Email {
			return nil, domain.ErrEmailTaken
		}
	}

	panel := nu.AccessPanel
	now := time.Now().UTC()
	u := &domain.User{
		ID:           db.nextID(),
		Name:         nu.Name,
		Email:        nu.Email,
		PasswordHash: nu.PasswordHash,
		Mobile:       nu.Mobile,
		RewardPoints: "0",
		Status:       nu.Status,
		AccessPanel:  &panel,
		Country:      nu.Country,
		ISO2:         nu.ISO2,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	db.users = append(db.users, u)
	c := *u
	return &c, nil
}

// UpdateProfile applies the non-nil fields of p.
func (db *DB) UpdateProfile(ctx context.Context, id uint64, p domain.ProfileUpdate) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID != id {
			continue
		}
		if p.Email != nil {
			for _, other := range db.users {
				if other.ID != id && other.Email == *p.Email {
					return false, domain.ErrEmailTaken
				}
			}
			u.Email = *p.Email
		}
		if p.Name != nil {
			u.Name = *p.Name
		}
		if p.Mobile != nil {
			u.Mobile = *p.Mobile
		}
		u.UpdatedAt = time.Now().UTC()
		return true, nil
	}
	return false, nil
}

// UpdatePassword replaces the stored hash.
func (db *DB) UpdatePassword(ctx context.Context, id uint64, passwordHash string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			u.PasswordHash = passwordHash
			u.UpdatedAt = time.Now().UTC()
		}
	}
	return nil
}

// Count returns the total number of users.
func (db *DB) Count(ctx context.Context) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return int64(len(db.users)), nil
}

// --- CatalogRepository ---

// ListProducts filters, orders by id and pages products.
func (db *DB) ListProducts(ctx context.Context, f domain.ProductFilter) ([]domain.Product, int64, error) {
	if err := db.wait(ctx); err != nil {
		return nil, 0, err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	search := strings.ToLower(f.Search)
	var matched []domain.Product
	for _, p := range db.products {
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if f.CategoryID != 0 && (p.CategoryID == nil || *p.CategoryID != f.CategoryID) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		matched = append(matched, p)
	}
	return window(matched, f.Page), int64(len(matched)), nil
}

// GetProduct retrieves a product by ID.
func (db *DB) GetProduct(ctx context.Context, id uint64) (*domain.Product, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, p := range db.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, nil
}

// SetProductStatus updates a product's status.
func (db *DB) SetProductStatus(ctx context.Context, id uint64, status string) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i := range db.products {
		if db.products[i].ID == id {
			db.products[i].Status = status
			return true, nil
		}
	}
	return false, nil
}

// CountProducts returns the number of products.
func (db *DB) CountProducts(ctx context.Context) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return int64(len(db.products)), nil
}

// ListCategories lists categories, optionally by status.
func (db *DB) ListCategories(ctx context.Context, status string) ([]domain.Category, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := []domain.Category{}
	for _, c := range db.categories {
		if status == "" || c.Status == status {
			out = append(out, c)
		}
	}
	return out, nil
}

// CreateCategory inserts a category.
func (db *DB) CreateCategory(ctx context.Context, name, status string) (*domain.Category, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	c := domain.Category{ID: db.nextID(), Name: name, Status: status, CreatedAt: time.Now().UTC()}
	db.categories = append(db.categories, c)
	return &c, nil
}

// DeleteCategory removes a category by ID.
func (db *DB) DeleteCategory(ctx context.Context, id uint64) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i, c := range db.categories {
		if c.ID == id {
			db.categories = append(db.categories[:i], db.categories[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// ListBanners lists active banners by sort order, optionally for one position.
func (db *DB) ListBanners(ctx context.Context, position string) ([]domain.Banner, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := []domain.Banner{}
	for _, b := range db.banners {
		if b.Status == "active" && (position == "" || b.Position == position) {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

// --- CartRepository ---

// ListCart returns the user's cart lines.
func (db *DB) ListCart(ctx context.Context, userID uint64) ([]domain.CartItem, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]domain.CartItem, len(db.carts[userID]))
	copy(out, db.carts[userID])
	return out, nil
}

// AddCartItem adds quantity of a product, merging with an existing line.
func (db *DB) AddCartItem(ctx context.Context, userID, productID uint64, quantity int) (*domain.CartItem, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var product *domain.Product
	for i := range db.products {
		if db.products[i].ID == productID {
			product = &db.products[i]
		}
	}
	if product == nil {
		return nil, nil
	}

	lines := db.carts[userID]
	for i := range lines {
		if lines[i].ProductID == productID {
			lines[i].Quantity += quantity
			item := lines[i]
			return &item, nil
		}
	}

	item := domain.CartItem{
		ID:          db.nextID(),
		ProductID:   productID,
		ProductName: product.Name,
		Price:       product.Price,
		Quantity:    quantity,
		CreatedAt:   time.Now().UTC(),
	}
	db.carts[userID] = append(lines, item)
	return &item, nil
}

// RemoveCartItem deletes one of the user's cart lines.
func (db *DB) RemoveCartItem(ctx context.Context, userID, itemID uint64) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	lines := db.carts[userID]
	for i, l := range lines {
		if l.ID == itemID {
			db.carts[userID] = append(lines[:i], lines[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// --- OrderRepository ---

// ListOrders lists orders newest first.
func (db *DB) ListOrders(ctx context.Context, userID uint64, p domain.Page) ([]domain.Order, int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var matched []domain.Order
	for i := len(db.orders) - 1; i >= 0; i-- {
		if userID == 0 || db.orders[i].UserID == userID {
			matched = append(matched, db.orders[i])
		}
	}
	return window(matched, p), int64(len(matched)), nil
}

// PlaceOrder converts the cart into an order under one lock.
func (db *DB) PlaceOrder(ctx context.Context, userID uint64) (*domain.Order, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	lines := db.carts[userID]
	if len(lines) == 0 {
		return nil, domain.ErrEmptyCart
	}

	o := domain.Order{
		ID:        db.nextID(),
		UserID:    userID,
		Status:    domain.OrderPending,
		CreatedAt: time.Now().UTC(),
	}
	for _, l := range lines {
		o.Items = append(o.Items, domain.OrderItem{
			ProductID: l.ProductID,
			Name:      l.ProductName,
			Price:     l.Price,
			Quantity:  l.Quantity,
		})
		o.Total += l.Price * int64(l.Quantity)
	}
	db.orders = append(db.orders, o)
	delete(db.carts, userID)
	return &o, nil
}

// CountOrders returns the number of orders.
func (db *DB) CountOrders(ctx context.Context) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return int64(len(db.orders)), nil
}

// --- WithdrawalRepository ---

// ListWithdrawals lists withdrawals of one kind, newest first.
func (db *DB) ListWithdrawals(ctx context.Context, kind domain.WithdrawalKind, status string, p domain.Page) ([]domain.Withdrawal, int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var matched []domain.Withdrawal
	for i := len(db.withdrawals) - 1; i >= 0; i-- {
		w := db.withdrawals[i]
		if w.Kind == kind && (status == "" || w.Status == status) {
			matched = append(matched, w)
		}
	}
	return window(matched, p), int64(len(matched)), nil
}

// UpdateWithdrawal sets the status and notes of a withdrawal.
func (db *DB) UpdateWithdrawal(ctx context.Context, kind domain.WithdrawalKind, id uint64, status string, notes *string) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i := range db.withdrawals {
		w := &db.withdrawals[i]
		if w.ID == id && w.Kind == kind {
			w.Status = status
			if notes != nil {
				n := *notes
				w.Notes = &n
			}
			w.UpdatedAt = time.Now().UTC()
			return true, nil
		}
	}
	return false, nil
}

// CountPendingWithdrawals counts pending withdrawals of every kind.
func (db *DB) CountPendingWithdrawals(ctx context.Context) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var n int64
	for _, w := range db.withdrawals {
		if w.Status == domain.WithdrawalPending {
			n++
		}
	}
	return n, nil
}

// --- SystemUpdateRepository ---

// ListSystemUpdates lists updates newest first.
func (db *DB) ListSystemUpdates(ctx context.Context) ([]domain.SystemUpdate, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]domain.SystemUpdate, 0, len(db.updates))
	for i := len(db.updates) - 1; i >= 0; i-- {
		out = append(out, db.updates[i])
	}
	return out, nil
}

// CreateSystemUpdate records an update.
func (db *DB) CreateSystemUpdate(ctx context.Context, version, notes string, appliedBy uint64) (*domain.SystemUpdate, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	u := domain.SystemUpdate{
		ID:        db.nextID(),
		Version:   version,
		Notes:     notes,
		AppliedBy: appliedBy,
		CreatedAt: time.Now().UTC(),
	}
	db.updates = append(db.updates, u)
	return &u, nil
}

// --- Store ---

// Store leases the in-memory database through the same gate the PostgreSQL
// store uses, so saturation behaves identically.
type Store struct {
	db   *DB
	pool *pool.Pool[*DB]
}

// NewStore wraps db in a pool gate configured by cfg.
func NewStore(db *DB, cfg pool.Config) *Store {
	open := func(context.Context) (*DB, func(), error) { return db, func() {}, nil }
	return &Store{db: db, pool: pool.New(cfg, open)}
}

// DB exposes the underlying database for seeding.
func (s *Store) DB() *DB { return s.db }

// Pool exposes the gate for metrics.
func (s *Store) Pool() *pool.Pool[*DB] { return s.pool }

// Lease acquires exclusive use of a connection slot.
func (s *Store) Lease(ctx context.Context) (domain.Conn, error) {
	l, err := s.pool.Acquire(ctx)
	if err != nil {
		if errors.Is(err, pool.ErrUnavailable) {
			return nil, domain.DBUnavailable(err)
		}
		return nil, err
	}
	return conn{l}, nil
}

type conn struct {
	lease *pool.Lease[*DB]
}

func (c conn) Users() domain.UserRepository                 { return c.lease.Conn() }
func (c conn) Catalog() domain.CatalogRepository            { return c.lease.Conn() }
func (c conn) Carts() domain.CartRepository                 { return c.lease.Conn() }
func (c conn) Orders() domain.OrderRepository               { return c.lease.Conn() }
func (c conn) Withdrawals() domain.WithdrawalRepository     { return c.lease.Conn() }
func (c conn) SystemUpdates() domain.SystemUpdateRepository { return c.lease.Conn() }
func (c conn) Release()                                     { c.lease.Release() }
