package app

import (
	"fmt"
	"time"

	"farmlink/pkg/auth"
	"farmlink/pkg/events"
	"farmlink/pkg/storage"
	"farmlink/pkg/store"
)

// Config holds runtime dependencies for the core application.
// Store and Sink may be injected directly (tests); otherwise the store is
// opened from DatabaseURL.
type Config struct {
	DatabaseURL  string
	MaxDBConns   int
	Store        store.Store
	Sink         events.Sink
	Tokens       *auth.TokenManager
	Objects      storage.ObjectStore
	PresignTTL   time.Duration
}

// App wires the marketplace services: users, products, requests, messages.
// Every mutation publishes a typed event to the sink after its write commits.
type App struct {
	store         store.Store
	sink          events.Sink
	tokens        *auth.TokenManager
	objects       storage.ObjectStore
	presignExpiry time.Duration
}

// New constructs the application.
func New(cfg Config) (*App, error) {
	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL, cfg.MaxDBConns)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}
	if cfg.Tokens == nil {
		return nil, fmt.Errorf("token manager required")
	}
	sink := cfg.Sink
	if sink == nil {
		sink = events.Nop{}
	}
	presignExpiry := cfg.PresignTTL
	if presignExpiry <= 0 {
		presignExpiry = 15 * time.Minute
	}
	return &App{
		store:         dataStore,
		sink:          sink,
		tokens:        cfg.Tokens,
		objects:       cfg.Objects,
		presignExpiry: presignExpiry,
	}, nil
}

// Tokens exposes the token manager for the HTTP layer's auth middleware.
func (a *App) Tokens() *auth.TokenManager {
	return a.tokens
}
