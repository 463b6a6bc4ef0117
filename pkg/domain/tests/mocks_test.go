package tests

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ecommerce/pkg/domain/model"
	"ecommerce/pkg/domain/service"
)

var _ model.RoleRepository = &mockRoleRepository{}

type mockRoleRepository struct {
	mu    sync.Mutex
	store map[uuid.UUID]*model.Role
	finds int
}

func newMockRoleRepository() *mockRoleRepository {
	return &mockRoleRepository{store: make(map[uuid.UUID]*model.Role)}
}

func (m *mockRoleRepository) NextID() (uuid.UUID, error) { return uuid.New(), nil }

func (m *mockRoleRepository) Create(_ context.Context, role *model.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.store {
		if r.Name == role.Name {
			return model.ErrDuplicateRoleName
		}
	}
	clone := *role
	m.store[role.ID] = &clone
	return nil
}

func (m *mockRoleRepository) Update(_ context.Context, role *model.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[role.ID]; !ok {
		return model.ErrRoleNotFound
	}
	clone := *role
	m.store[role.ID] = &clone
	return nil
}

func (m *mockRoleRepository) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return model.ErrRoleNotFound
	}
	delete(m.store, id)
	return nil
}

func (m *mockRoleRepository) Find(_ context.Context, id uuid.UUID) (*model.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finds++
	if r, ok := m.store[id]; ok {
		clone := *r
		return &clone, nil
	}
	return nil, model.ErrRoleNotFound
}

func (m *mockRoleRepository) FindByName(_ context.Context, name string) (*model.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.store {
		if r.Name == name {
			clone := *r
			return &clone, nil
		}
	}
	return nil, model.ErrRoleNotFound
}

func (m *mockRoleRepository) List(_ context.Context) ([]model.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	roles := make([]model.Role, 0, len(m.store))
	for _, r := range m.store {
		roles = append(roles, *r)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].Name < roles[j].Name })
	return roles, nil
}

var _ model.UserRepository = &mockUserRepository{}

type mockUserRepository struct {
	mu    sync.Mutex
	store map[uuid.UUID]*model.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{store: make(map[uuid.UUID]*model.User)}
}

func (m *mockUserRepository) NextID() (uuid.UUID, error) { return uuid.New(), nil }

func (m *mockUserRepository) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *user
	m.store[user.ID] = &clone
	return nil
}

func (m *mockUserRepository) Find(_ context.Context, id uuid.UUID) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.store[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) FindByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.store {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) List(_ context.Context, page model.Page) ([]model.User, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := make([]model.User, 0, len(m.store))
	for _, u := range m.store {
		users = append(users, *u)
	}
	return users, len(users), nil
}

func (m *mockUserRepository) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.store), nil
}

func (m *mockUserRepository) CountByRole(_ context.Context, roleID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, u := range m.store {
		if u.RoleID != nil && *u.RoleID == roleID {
			count++
		}
	}
	return count, nil
}

func (m *mockUserRepository) SetRole(_ context.Context, userID uuid.UUID, roleID *uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[userID]
	if !ok {
		return model.ErrUserNotFound
	}
	u.RoleID = roleID
	return nil
}

type mockSessionRepository struct {
	store map[string]*model.Session
}

func (m *mockSessionRepository) Create(_ context.Context, session *model.Session) error {
	clone := *session
	m.store[session.Token] = &clone
	return nil
}

func (m *mockSessionRepository) Find(_ context.Context, token string) (*model.Session, error) {
	if s, ok := m.store[token]; ok {
		clone := *s
		return &clone, nil
	}
	return nil, model.ErrSessionNotFound
}

func (m *mockSessionRepository) Delete(_ context.Context, token string) error {
	delete(m.store, token)
	return nil
}

type mockPasswordManager struct{}

func (m *mockPasswordManager) Hash(pwd string) (string, error) {
	if pwd == "" {
		return "", errors.New("empty password")
	}
	return fmt.Sprintf("%s-hashed", pwd), nil
}

func (m *mockPasswordManager) Check(hashed, pwd string) (bool, error) {
	return hashed == fmt.Sprintf("%s-hashed", pwd), nil
}

var (
	_ model.ProductRepository = &mockProductRepository{}
	_ model.StockLedger       = &mockProductRepository{}
)

// mockProductRepository doubles as the stock ledger so that reservations
// are conditional decrements under the same lock as reads.
type mockProductRepository struct {
	mu    sync.Mutex
	store map[uuid.UUID]*model.Product
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{store: make(map[uuid.UUID]*model.Product)}
}

func (m *mockProductRepository) add(name string, price, taxRate, extra float64, stock int) *model.Product {
	tax := decimal.NewFromFloat(taxRate)
	p := &model.Product{
		ID:          uuid.New(),
		Name:        name,
		Price:       decimal.NewFromFloat(price),
		TaxRate:     &tax,
		ExtraCharge: decimal.NewFromFloat(extra),
		Stock:       stock,
		Images:      []string{"https://img.example.com/" + strings.ToLower(name) + ".jpg"},
	}
	m.mu.Lock()
	m.store[p.ID] = p
	m.mu.Unlock()
	return p
}

func (m *mockProductRepository) stock(id uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store[id].Stock
}

func (m *mockProductRepository) NextID() (uuid.UUID, error) { return uuid.New(), nil }

func (m *mockProductRepository) Create(_ context.Context, p *model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *p
	m.store[p.ID] = &clone
	return nil
}

func (m *mockProductRepository) Update(_ context.Context, p *model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.store[p.ID]
	if !ok {
		return model.ErrProductNotFound
	}
	clone := *p
	clone.Stock = existing.Stock
	m.store[p.ID] = &clone
	return nil
}

func (m *mockProductRepository) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return model.ErrProductNotFound
	}
	delete(m.store, id)
	return nil
}

func (m *mockProductRepository) Find(_ context.Context, id uuid.UUID) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.store[id]; ok {
		clone := *p
		return &clone, nil
	}
	return nil, model.ErrProductNotFound
}

func (m *mockProductRepository) List(_ context.Context, _ model.ProductFilter, _ model.Page) ([]model.Product, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	products := make([]model.Product, 0, len(m.store))
	for _, p := range m.store {
		products = append(products, *p)
	}
	return products, len(products), nil
}

func (m *mockProductRepository) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.store), nil
}

func (m *mockProductRepository) CountLowStock(_ context.Context, threshold int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, p := range m.store {
		if p.Stock <= threshold {
			count++
		}
	}
	return count, nil
}

func (m *mockProductRepository) Reserve(ctx context.Context, id uuid.UUID, quantity int) error {
	return m.ReserveAll(ctx, []model.StockLine{{ProductID: id, Quantity: quantity}})
}

func (m *mockProductRepository) Release(ctx context.Context, id uuid.UUID, quantity int) error {
	return m.ReleaseAll(ctx, []model.StockLine{{ProductID: id, Quantity: quantity}})
}

func (m *mockProductRepository) ReserveAll(_ context.Context, lines []model.StockLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	need := make(map[uuid.UUID]int)
	for _, line := range lines {
		need[line.ProductID] += line.Quantity
	}
	for id, quantity := range need {
		p, ok := m.store[id]
		if !ok {
			return model.ErrProductNotFound
		}
		if p.Stock < quantity {
			return model.ErrInsufficientStock
		}
	}
	for id, quantity := range need {
		m.store[id].Stock -= quantity
	}
	return nil
}

type failingReleaseLedger struct {
	model.StockLedger
	err error
}

func (l *failingReleaseLedger) ReleaseAll(context.Context, []model.StockLine) error {
	return l.err
}

func (m *mockProductRepository) ReleaseAll(_ context.Context, lines []model.StockLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, line := range lines {
		p, ok := m.store[line.ProductID]
		if !ok {
			return model.ErrProductNotFound
		}
		p.Stock += line.Quantity
	}
	return nil
}

var _ model.CartRepository = &mockCartRepository{}

type mockCartRepository struct {
	mu        sync.Mutex
	store     map[uuid.UUID]*model.Cart
	failClear bool
}

func newMockCartRepository() *mockCartRepository {
	return &mockCartRepository{store: make(map[uuid.UUID]*model.Cart)}
}

func (m *mockCartRepository) Find(_ context.Context, userID uuid.UUID) (*model.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.store[userID]
	if !ok {
		return &model.Cart{UserID: userID}, nil
	}
	clone := *c
	clone.Items = append([]model.CartItem(nil), c.Items...)
	return &clone, nil
}

func (m *mockCartRepository) Save(_ context.Context, cart *model.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *cart
	clone.Items = append([]model.CartItem(nil), cart.Items...)
	m.store[cart.UserID] = &clone
	return nil
}

func (m *mockCartRepository) Clear(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failClear {
		return errors.New("cart storage unavailable")
	}
	if c, ok := m.store[userID]; ok {
		c.Items = nil
	}
	return nil
}

var _ model.OrderRepository = &mockOrderRepository{}

type mockOrderRepository struct {
	mu         sync.Mutex
	store      map[uuid.UUID]*model.Order
	failCreate bool
	// ledger receives the stock of cancelled orders.
	ledger model.StockLedger
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{store: make(map[uuid.UUID]*model.Order)}
}

func (m *mockOrderRepository) get(id uuid.UUID) *model.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store[id]
}

func (m *mockOrderRepository) NextID() (uuid.UUID, error) { return uuid.NewRandom() }

func (m *mockOrderRepository) Create(_ context.Context, order *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreate {
		return errors.New("database unavailable")
	}
	if _, exists := m.store[order.ID]; exists {
		return errors.New("order with this ID already exists")
	}
	clone := *order
	m.store[order.ID] = &clone
	return nil
}

func (m *mockOrderRepository) Update(_ context.Context, order *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.store[order.ID]
	if !ok {
		return model.ErrOrderNotFound
	}
	if existing.Version != order.Version-1 {
		return model.ErrOptimisticLock
	}
	updated := *order
	m.store[order.ID] = &updated
	return nil
}

func (m *mockOrderRepository) Cancel(ctx context.Context, order *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.store[order.ID]
	if !ok {
		return model.ErrOrderNotFound
	}
	if existing.Version != order.Version-1 {
		return model.ErrOptimisticLock
	}
	if m.ledger != nil {
		if err := m.ledger.ReleaseAll(ctx, order.StockLines()); err != nil {
			return err
		}
	}
	updated := *order
	m.store[order.ID] = &updated
	return nil
}

func (m *mockOrderRepository) Find(_ context.Context, id uuid.UUID) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if order, ok := m.store[id]; ok {
		clone := *order
		return &clone, nil
	}
	return nil, model.ErrOrderNotFound
}

func (m *mockOrderRepository) List(_ context.Context, filter model.OrderFilter, _ model.Page) ([]model.Order, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var orders []model.Order
	for _, o := range m.store {
		if filter.UserID != nil && o.UserID != *filter.UserID {
			continue
		}
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		orders = append(orders, *o)
	}
	return orders, len(orders), nil
}

func (m *mockOrderRepository) Stats(_ context.Context) (model.OrderStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := model.OrderStats{CountByStatus: make(map[model.OrderStatus]int), Revenue: decimal.Zero}
	for _, o := range m.store {
		stats.CountByStatus[o.Status]++
		if o.Status != model.Cancelled {
			stats.Revenue = stats.Revenue.Add(o.TotalAmount)
		}
	}
	return stats, nil
}

type mockInvoiceRenderer struct {
	renders int
}

func (m *mockInvoiceRenderer) Render(order *model.Order) ([]byte, error) {
	m.renders++
	return []byte("%PDF-1.4 invoice " + order.ID.String()), nil
}

type mockFileStorage struct {
	files   map[string][]byte
	uploads int
}

func newMockFileStorage() *mockFileStorage {
	return &mockFileStorage{files: make(map[string][]byte)}
}

func (m *mockFileStorage) Upload(_ context.Context, name string, content []byte) (model.StoredFile, error) {
	m.uploads++
	id := fmt.Sprintf("%d-%s", m.uploads, name)
	m.files[id] = content
	return model.StoredFile{ID: id, URL: "https://files.example.com/" + id}, nil
}

func (m *mockFileStorage) Fetch(_ context.Context, id string) ([]byte, error) {
	content, ok := m.files[id]
	if !ok {
		return nil, errors.New("file not found")
	}
	return content, nil
}

func (m *mockFileStorage) Delete(_ context.Context, id string) error {
	delete(m.files, id)
	return nil
}

type mockPaymentGateway struct {
	calls      int
	lastAmount int64
	lastRef    string
	err        error
}

func (m *mockPaymentGateway) CreateIntent(_ context.Context, amountMinor int64, currency, reference string) (*model.PaymentIntent, error) {
	m.calls++
	m.lastAmount = amountMinor
	m.lastRef = reference
	if m.err != nil {
		return nil, m.err
	}
	return &model.PaymentIntent{
		ID:          "order_" + reference[:8],
		AmountMinor: amountMinor,
		Currency:    currency,
		Reference:   reference,
		Status:      "created",
	}, nil
}

type sentMail struct {
	to      string
	subject string
}

type mockMailSender struct {
	sent        []sentMail
	shouldError bool
}

func (m *mockMailSender) Send(_ context.Context, to, subject, _ string) error {
	if m.shouldError {
		return errors.New("failed to send")
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject})
	return nil
}

var _ service.EventDispatcher = &mockEventDispatcher{}

type mockEventDispatcher struct {
	mu     sync.Mutex
	events []service.Event
}

func (m *mockEventDispatcher) Dispatch(event service.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *mockEventDispatcher) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}

func (m *mockEventDispatcher) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, 0, len(m.events))
	for _, e := range m.events {
		types = append(types, e.Type())
	}
	return types
}
