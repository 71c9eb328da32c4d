package app

import (
	"context"
	"fmt"
	"time"

	"farmlink/internal/util"
	"farmlink/pkg/domain"
	"farmlink/pkg/events"
)

// MessageParams carries the payload for sending a direct message.
type MessageParams struct {
	SenderID    string
	RecipientID string
	Text        string
}

// SendMessage stores a direct message from the actor and broadcasts it.
func (a *App) SendMessage(ctx context.Context, actor domain.User, p MessageParams) (domain.Message, error) {
	if err := validateMessage(p); err != nil {
		return domain.Message{}, err
	}
	if p.SenderID != actor.ID {
		return domain.Message{}, ErrForbidden
	}
	if _, ok, err := a.store.GetUserByID(p.RecipientID); err != nil {
		return domain.Message{}, fmt.Errorf("fetch recipient: %w", err)
	} else if !ok {
		return domain.Message{}, ErrNotFound
	}
	message := domain.Message{
		ID:          util.NewID(),
		SenderID:    p.SenderID,
		RecipientID: p.RecipientID,
		Text:        p.Text,
		Timestamp:   time.Now().UTC(),
	}
	if err := a.store.SaveMessage(message); err != nil {
		return domain.Message{}, fmt.Errorf("save message: %w", err)
	}
	a.sink.Publish(ctx, events.Event{Name: events.MessageSent, Payload: message})
	return message, nil
}

// ListMessagesBetween returns the full conversation between two users,
// oldest first.
func (a *App) ListMessagesBetween(userA, userB string) ([]domain.Message, error) {
	if userA == "" || userB == "" {
		return nil, &ValidationError{Errors: []string{"Both user IDs required"}}
	}
	return a.store.ListMessagesBetween(userA, userB)
}

// ListContacts returns the ids of everyone the user has exchanged
// messages with.
func (a *App) ListContacts(userID string) ([]string, error) {
	if userID == "" {
		return nil, &ValidationError{Errors: []string{"User ID required"}}
	}
	return a.store.ListContacts(userID)
}
