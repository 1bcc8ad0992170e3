package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"alpha-clothing/internal/domain"
	"alpha-clothing/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Mock repositories for testing

type mockUserRepository struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users: make(map[string]*domain.User),
	}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[user.Email]; exists {
		return repository.ErrUserAlreadyExists
	}
	m.users[user.Email] = user
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, exists := m.users[email]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) List(ctx context.Context, page, pageSize int) ([]*domain.User, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := make([]*domain.User, 0, len(m.users))
	for _, user := range m.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return paginate(users, page, pageSize), len(users), nil
}

func (m *mockUserRepository) UpdateRole(ctx context.Context, id uuid.UUID, role string, updatedAt time.Time) error {
	user, err := m.FindByID(ctx, id)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	user.Role = role
	user.UpdatedAt = updatedAt
	return nil
}

func (m *mockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	user, err := m.FindByID(ctx, id)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, user.Email)
	return nil
}

func (m *mockUserRepository) Stats(ctx context.Context) (*domain.UserStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &domain.UserStats{TotalUsers: len(m.users)}
	for _, user := range m.users {
		if user.IsAdmin() {
			stats.AdminCount++
		}
	}
	return stats, nil
}

type mockRefreshTokenRepository struct {
	tokens map[string]*domain.RefreshToken
}

func newMockRefreshTokenRepository() *mockRefreshTokenRepository {
	return &mockRefreshTokenRepository{
		tokens: make(map[string]*domain.RefreshToken),
	}
}

func (m *mockRefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	m.tokens[token.Token] = token
	return nil
}

func (m *mockRefreshTokenRepository) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	refreshToken, exists := m.tokens[token]
	if !exists {
		return nil, repository.ErrRefreshTokenNotFound
	}
	if refreshToken.Revoked {
		return nil, repository.ErrRefreshTokenRevoked
	}
	return refreshToken, nil
}

func (m *mockRefreshTokenRepository) Revoke(ctx context.Context, token string) error {
	refreshToken, exists := m.tokens[token]
	if !exists {
		return repository.ErrRefreshTokenNotFound
	}
	refreshToken.Revoked = true
	return nil
}

func (m *mockRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	for _, token := range m.tokens {
		if token.UserID == userID && !token.Revoked {
			token.Revoked = true
			n++
		}
	}
	return n, nil
}

type mockProductRepository struct {
	mu       sync.Mutex
	products map[uuid.UUID]*domain.Product
	failWith error
}

func newMockProductRepository(products ...*domain.Product) *mockProductRepository {
	m := &mockProductRepository{products: make(map[uuid.UUID]*domain.Product)}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *product
	m.products[product.ID] = &cp
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[product.ID]; !ok {
		return repository.ErrProductNotFound
	}
	cp := *product
	m.products[product.ID] = &cp
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	product, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	cp := *product
	return &cp, nil
}

func (m *mockProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	found := make(map[uuid.UUID]*domain.Product)
	for _, id := range ids {
		if product, ok := m.products[id]; ok {
			cp := *product
			found[id] = &cp
		}
	}
	return found, nil
}

func (m *mockProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	products := make([]*domain.Product, 0, len(m.products))
	for _, p := range m.products {
		if filter.Category != nil && p.Category != *filter.Category {
			continue
		}
		if filter.Size != nil && !p.HasSize(*filter.Size) {
			continue
		}
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Price.LessThan(products[j].Price) })
	return paginate(products, filter.Page, filter.PageSize), len(products), nil
}

type mockCategoryRepository struct {
	products *mockProductRepository
}

func (m *mockCategoryRepository) Stats(ctx context.Context) (*domain.CatalogStats, error) {
	stats := &domain.CatalogStats{CategoryStats: []domain.CategoryStats{}}
	for _, category := range domain.Categories {
		cs := domain.CategoryStats{Category: category}
		for _, p := range m.products.products {
			if p.Category == category {
				cs.Count++
				cs.TotalStock += p.Stock
			}
		}
		if cs.Count > 0 {
			stats.TotalProducts += cs.Count
			stats.TotalStock += cs.TotalStock
			stats.CategoryStats = append(stats.CategoryStats, cs)
		}
	}
	return stats, nil
}

func (m *mockCategoryRepository) InUse(ctx context.Context) ([]domain.Category, error) {
	stats, _ := m.Stats(ctx)
	categories := []domain.Category{}
	for _, cs := range stats.CategoryStats {
		categories = append(categories, cs.Category)
	}
	return categories, nil
}

// mockCartRepository stores deep copies and enforces the version check like the
// real repository. conflicts makes the next N saves fail with a version conflict.
type mockCartRepository struct {
	mu        sync.Mutex
	carts     map[uuid.UUID]*domain.Cart
	conflicts int
	saves     int
	deleteErr error
}

func newMockCartRepository() *mockCartRepository {
	return &mockCartRepository{carts: make(map[uuid.UUID]*domain.Cart)}
}

func copyCart(c *domain.Cart) *domain.Cart {
	cp := *c
	cp.Items = append([]domain.CartItem{}, c.Items...)
	return &cp
}

func (m *mockCartRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart, ok := m.carts[userID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	return copyCart(cart), nil
}

func (m *mockCartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++

	if m.conflicts > 0 {
		m.conflicts--
		return repository.ErrCartVersionConflict
	}

	current, exists := m.carts[cart.UserID]
	switch {
	case cart.Version == 0 && exists:
		return repository.ErrCartVersionConflict
	case cart.Version != 0 && (!exists || current.Version != cart.Version):
		return repository.ErrCartVersionConflict
	}

	cart.Version++
	m.carts[cart.UserID] = copyCart(cart)
	return nil
}

func (m *mockCartRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.carts, userID)
	return nil
}

type mockOrderRepository struct {
	mu        sync.Mutex
	orders    []*domain.Order
	createErr error
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{}
}

func copyOrder(o *domain.Order) *domain.Order {
	cp := *o
	cp.Items = append([]domain.OrderItem{}, o.Items...)
	return &cp
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	for _, o := range m.orders {
		if o.OrderNumber == order.OrderNumber {
			return repository.ErrDuplicateOrderNumber
		}
	}
	m.orders = append(m.orders, copyOrder(order))
	return nil
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.ID == id {
			return copyOrder(o), nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

func (m *mockOrderRepository) FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Order, error) {
	order, err := m.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, repository.ErrOrderNotFound
	}
	return order, nil
}

func (m *mockOrderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	orders := []*domain.Order{}
	for i := len(m.orders) - 1; i >= 0; i-- {
		if m.orders[i].UserID == userID {
			orders = append(orders, copyOrder(m.orders[i]))
		}
	}
	return orders, nil
}

func (m *mockOrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]*domain.Order, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	orders := []*domain.Order{}
	for i := len(m.orders) - 1; i >= 0; i-- {
		if filter.Status == nil || m.orders[i].Status == *filter.Status {
			orders = append(orders, copyOrder(m.orders[i]))
		}
	}
	return paginate(orders, filter.Page, filter.PageSize), len(orders), nil
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.ID == id {
			o.Status = status
			o.UpdatedAt = updatedAt
			return nil
		}
	}
	return repository.ErrOrderNotFound
}

func (m *mockOrderRepository) Stats(ctx context.Context, recent int) (*domain.OrderStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &domain.OrderStats{TotalRevenue: decimal.Zero, RecentOrders: []*domain.Order{}}
	counts := map[domain.OrderStatus]int{}
	for _, o := range m.orders {
		stats.TotalOrders++
		counts[o.Status]++
		if o.Status != domain.OrderStatusCancelled {
			stats.TotalRevenue = stats.TotalRevenue.Add(o.TotalAmount)
		}
	}
	for _, status := range domain.OrderStatuses {
		if counts[status] > 0 {
			stats.ByStatus = append(stats.ByStatus, domain.OrderStatusCount{Status: status, Count: counts[status]})
		}
	}
	for i := len(m.orders) - 1; i >= 0 && len(stats.RecentOrders) < recent; i-- {
		stats.RecentOrders = append(stats.RecentOrders, copyOrder(m.orders[i]))
	}
	return stats, nil
}

func (m *mockOrderRepository) SalesSince(ctx context.Context, since time.Time) ([]domain.DailySales, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byDay := map[string]*domain.DailySales{}
	var days []string
	for _, o := range m.orders {
		if o.CreatedAt.Before(since) || o.Status == domain.OrderStatusCancelled {
			continue
		}
		day := o.CreatedAt.UTC().Format("2006-01-02")
		if _, ok := byDay[day]; !ok {
			byDay[day] = &domain.DailySales{Date: day, Revenue: decimal.Zero}
			days = append(days, day)
		}
		byDay[day].Orders++
		byDay[day].Revenue = byDay[day].Revenue.Add(o.TotalAmount)
	}
	sort.Strings(days)
	sales := []domain.DailySales{}
	for _, day := range days {
		sales = append(sales, *byDay[day])
	}
	return sales, nil
}

// recordingNotifier remembers every order it was told about
type recordingNotifier struct {
	mu     sync.Mutex
	orders []*domain.Order
	err    error
}

func (n *recordingNotifier) NotifyOrderPlaced(ctx context.Context, order *domain.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.orders = append(n.orders, copyOrder(order))
	return nil
}

func paginate[T any](items []T, page, pageSize int) []T {
	if pageSize <= 0 {
		return items
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []T{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func newProduct(name, price string, sizes ...domain.Size) *domain.Product {
	now := time.Now().UTC()
	return &domain.Product{
		ID:          uuid.New(),
		Name:        name,
		Description: name,
		Price:       decimal.RequireFromString(price),
		ImageURL:    "https://images.example.com/" + name + ".jpg",
		Category:    domain.CategoryMen,
		Sizes:       sizes,
		Stock:       10,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func validAddress() domain.ShippingAddress {
	return domain.ShippingAddress{
		Street:  "1 Main St",
		City:    "Springfield",
		State:   "IL",
		ZipCode: "62701",
		Country: "US",
	}
}
