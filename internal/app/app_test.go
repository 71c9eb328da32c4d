package app

import (
	"context"
	"sync"
	"testing"

	"farmlink/pkg/auth"
	"farmlink/pkg/domain"
	"farmlink/pkg/events"
	"farmlink/pkg/store"
)

// captureSink records published events for assertions.
type captureSink struct {
	mu     sync.Mutex
	events []events.Event
}

func (c *captureSink) Publish(_ context.Context, ev events.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *captureSink) all() []events.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]events.Event, len(c.events))
	copy(out, c.events)
	return out
}

func (c *captureSink) last(t *testing.T) events.Event {
	t.Helper()
	all := c.all()
	if len(all) == 0 {
		t.Fatal("no events published")
	}
	return all[len(all)-1]
}

func newTestApp(t *testing.T) (*App, *captureSink) {
	t.Helper()
	tokens, err := auth.NewTokenManager("test-secret", auth.TokenOptions{})
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}
	sink := &captureSink{}
	a, err := New(Config{
		Store:  store.NewMemoryStore(),
		Sink:   sink,
		Tokens: tokens,
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return a, sink
}

func registerUser(t *testing.T, a *App, userType domain.UserType, email string) domain.User {
	t.Helper()
	user, _, err := a.Register(RegisterParams{
		Type:     userType,
		Name:     "Test " + string(userType),
		Email:    email,
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return user
}

func createProduct(t *testing.T, a *App, farmer domain.User) domain.Product {
	t.Helper()
	product, err := a.CreateProduct(context.Background(), farmer, ProductParams{
		FarmerID: farmer.ID,
		Name:     "Cassava",
		Category: "tubers",
		Quantity: 100,
		Unit:     "kg",
		Price:    2.5,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}
