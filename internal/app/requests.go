package app

import (
	"context"
	"fmt"
	"time"

	"farmlink/internal/util"
	"farmlink/pkg/domain"
	"farmlink/pkg/events"
	"farmlink/pkg/store"
)

// RequestParams carries the payload for opening a purchase request.
type RequestParams struct {
	ProductID string
	FarmerID  string
	VendorID  string
	Quantity  float64
	Notes     string
}

// CreateRequest opens a purchase request against a listing. New requests
// always start out pending regardless of what the caller sends.
func (a *App) CreateRequest(ctx context.Context, actor domain.User, p RequestParams) (domain.Request, error) {
	if err := validateRequest(p); err != nil {
		return domain.Request{}, err
	}
	if p.VendorID != actor.ID {
		return domain.Request{}, ErrForbidden
	}
	product, ok, err := a.store.GetProduct(p.ProductID)
	if err != nil {
		return domain.Request{}, fmt.Errorf("fetch product: %w", err)
	}
	if !ok {
		return domain.Request{}, ErrNotFound
	}
	if product.FarmerID != p.FarmerID {
		return domain.Request{}, &ValidationError{Errors: []string{"Farmer ID does not match the product owner"}}
	}
	request := domain.Request{
		ID:        util.NewID(),
		ProductID: p.ProductID,
		FarmerID:  p.FarmerID,
		VendorID:  p.VendorID,
		Quantity:  p.Quantity,
		Notes:     p.Notes,
		Status:    domain.StatusPending,
		Timestamp: time.Now().UTC(),
	}
	if err := a.store.SaveRequest(request); err != nil {
		return domain.Request{}, fmt.Errorf("save request: %w", err)
	}
	a.sink.Publish(ctx, events.Event{Name: events.RequestCreated, Payload: request})
	return request, nil
}

// GetRequest returns a purchase request by id.
func (a *App) GetRequest(id string) (domain.Request, error) {
	request, ok, err := a.store.GetRequest(id)
	if err != nil {
		return domain.Request{}, fmt.Errorf("fetch request: %w", err)
	}
	if !ok {
		return domain.Request{}, ErrNotFound
	}
	return request, nil
}

// ListRequests returns requests for one side of the trade, newest first.
func (a *App) ListRequests(f store.RequestFilter) ([]domain.Request, error) {
	return a.store.ListRequests(f)
}

// statusUpdate is the payload broadcast when a request changes status.
type statusUpdate struct {
	ID     string               `json:"id"`
	Status domain.RequestStatus `json:"status"`
}

// UpdateRequestStatus moves a request through its lifecycle. Only the two
// participants may act, and only moves the transition table allows succeed.
func (a *App) UpdateRequestStatus(ctx context.Context, actor domain.User, id string, status domain.RequestStatus) (domain.Request, error) {
	if !domain.ValidRequestStatus(status) {
		return domain.Request{}, &ValidationError{Errors: []string{"Valid status required (pending, approved, declined, in-transit, or completed)"}}
	}
	request, ok, err := a.store.GetRequest(id)
	if err != nil {
		return domain.Request{}, fmt.Errorf("fetch request: %w", err)
	}
	if !ok {
		return domain.Request{}, ErrNotFound
	}
	if !request.IsParticipant(actor.ID) {
		return domain.Request{}, ErrForbidden
	}
	if !domain.CanTransition(request.Status, status) {
		return domain.Request{}, &InvalidTransitionError{From: request.Status, To: status}
	}
	updated, err := a.store.SetRequestStatus(id, status)
	if err != nil {
		return domain.Request{}, fmt.Errorf("update request: %w", err)
	}
	if !updated {
		return domain.Request{}, ErrNotFound
	}
	request.Status = status
	a.sink.Publish(ctx, events.Event{Name: events.RequestUpdated, Payload: statusUpdate{ID: id, Status: status}})
	return request, nil
}
