package store

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"farmlink/pkg/domain"
)

// ErrDuplicateEmail mirrors the unique-index violation of the SQL store.
var ErrDuplicateEmail = errors.New("duplicate email")

// MemoryStore keeps all records in-process. It mirrors GormStore semantics
// closely enough to back the service and server tests.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]domain.User
	email    map[string]string // email -> user ID
	products map[string]domain.Product
	requests map[string]domain.Request
	messages []domain.Message
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]domain.User),
		email:    make(map[string]string),
		products: make(map[string]domain.Product),
		requests: make(map[string]domain.Request),
	}
}

// SaveUser inserts a user, enforcing email uniqueness.
func (m *MemoryStore) SaveUser(u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.email[u.Email]; ok && existing != u.ID {
		return ErrDuplicateEmail
	}
	m.users[u.ID] = u
	m.email[u.Email] = u.ID
	return nil
}

// HasUserEmail checks if email exists.
func (m *MemoryStore) HasUserEmail(email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.email[email]
	return ok, nil
}

// GetUserByEmail looks up a user by email.
func (m *MemoryStore) GetUserByEmail(email string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.email[email]; ok {
		u, exists := m.users[id]
		return u, exists, nil
	}
	return domain.User{}, false, nil
}

// GetUserByID returns a user by ID.
func (m *MemoryStore) GetUserByID(id string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok, nil
}

// ListUsers returns all users ordered by creation time.
func (m *MemoryStore) ListUsers() ([]domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		res = append(res, u)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.Before(res[j].CreatedAt) })
	return res, nil
}

// SaveProduct stores or replaces a product.
func (m *MemoryStore) SaveProduct(p domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
	return nil
}

// GetProduct retrieves a product by ID.
func (m *MemoryStore) GetProduct(id string) (domain.Product, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[id]
	return p, ok, nil
}

// ListProducts filters, sorts, and pages products, returning the total match count.
func (m *MemoryStore) ListProducts(f ProductFilter) ([]domain.Product, int64, error) {
	f = NormalizeProductFilter(f)
	m.mu.RLock()
	matched := make([]domain.Product, 0, len(m.products))
	search := strings.ToLower(f.Search)
	for _, p := range m.products {
		if f.FarmerID != "" && p.FarmerID != f.FarmerID {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		matched = append(matched, p)
	}
	m.mu.RUnlock()

	sortProducts(matched, f.Sort, f.Order)
	total := int64(len(matched))
	start := (f.Page - 1) * f.Limit
	if start >= len(matched) {
		return []domain.Product{}, total, nil
	}
	end := start + f.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func sortProducts(products []domain.Product, column, order string) {
	less := func(i, j int) bool { return products[i].Timestamp.Before(products[j].Timestamp) }
	switch column {
	case "price":
		less = func(i, j int) bool { return products[i].Price < products[j].Price }
	case "name":
		less = func(i, j int) bool { return products[i].Name < products[j].Name }
	case "quantity":
		less = func(i, j int) bool { return products[i].Quantity < products[j].Quantity }
	}
	if order == "DESC" {
		inner := less
		less = func(i, j int) bool { return inner(j, i) }
	}
	sort.SliceStable(products, less)
}

// DeleteProduct removes a product. Returns false when the id is unknown.
func (m *MemoryStore) DeleteProduct(id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return false, nil
	}
	delete(m.products, id)
	return true, nil
}

// SaveRequest inserts a request.
func (m *MemoryStore) SaveRequest(r domain.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[r.ID] = r
	return nil
}

// GetRequest retrieves a request by ID.
func (m *MemoryStore) GetRequest(id string) (domain.Request, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.requests[id]
	return r, ok, nil
}

// ListRequests returns requests for one side of the trade, newest first.
func (m *MemoryStore) ListRequests(f RequestFilter) ([]domain.Request, error) {
	m.mu.RLock()
	res := make([]domain.Request, 0, len(m.requests))
	for _, r := range m.requests {
		if f.FarmerID != "" {
			if r.FarmerID != f.FarmerID {
				continue
			}
		} else if f.VendorID != "" && r.VendorID != f.VendorID {
			continue
		}
		res = append(res, r)
	}
	m.mu.RUnlock()
	sort.SliceStable(res, func(i, j int) bool { return res[j].Timestamp.Before(res[i].Timestamp) })
	return res, nil
}

// SetRequestStatus overwrites the status field. Returns false when the id is unknown.
func (m *MemoryStore) SetRequestStatus(id string, status domain.RequestStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return false, nil
	}
	r.Status = status
	m.requests[id] = r
	return true, nil
}

// SaveMessage appends a message.
func (m *MemoryStore) SaveMessage(msg domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

// ListMessagesBetween returns the full thread of the unordered user pair, oldest first.
func (m *MemoryStore) ListMessagesBetween(a, b string) ([]domain.Message, error) {
	m.mu.RLock()
	res := make([]domain.Message, 0)
	for _, msg := range m.messages {
		if (msg.SenderID == a && msg.RecipientID == b) || (msg.SenderID == b && msg.RecipientID == a) {
			res = append(res, msg)
		}
	}
	m.mu.RUnlock()
	sort.SliceStable(res, func(i, j int) bool { return res[i].Timestamp.Before(res[j].Timestamp) })
	return res, nil
}

// ListContacts returns the distinct counterpart ids the user has messaged with.
func (m *MemoryStore) ListContacts(userID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[string]struct{})
	res := make([]string, 0)
	for _, msg := range m.messages {
		var other string
		switch userID {
		case msg.SenderID:
			other = msg.RecipientID
		case msg.RecipientID:
			other = msg.SenderID
		default:
			continue
		}
		if _, ok := seen[other]; ok {
			continue
		}
		seen[other] = struct{}{}
		res = append(res, other)
	}
	return res, nil
}
