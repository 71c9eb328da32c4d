package app

import (
	"context"
	"errors"
	"testing"

	"farmlink/pkg/domain"
	"farmlink/pkg/events"
	"farmlink/pkg/store"
)

func openRequest(t *testing.T, a *App, vendor domain.User, product domain.Product) domain.Request {
	t.Helper()
	request, err := a.CreateRequest(context.Background(), vendor, RequestParams{
		ProductID: product.ID,
		FarmerID:  product.FarmerID,
		VendorID:  vendor.ID,
		Quantity:  10,
	})
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	return request
}

func TestCreateRequestStartsPending(t *testing.T) {
	a, sink := newTestApp(t)
	farmer := registerUser(t, a, domain.TypeFarmer, "f@example.com")
	vendor := registerUser(t, a, domain.TypeVendor, "v@example.com")
	product := createProduct(t, a, farmer)

	request := openRequest(t, a, vendor, product)
	if request.Status != domain.StatusPending {
		t.Fatalf("status = %s, want pending", request.Status)
	}
	ev := sink.last(t)
	if ev.Name != events.RequestCreated {
		t.Fatalf("event = %s, want %s", ev.Name, events.RequestCreated)
	}
}

func TestCreateRequestForAnotherVendorForbidden(t *testing.T) {
	a, _ := newTestApp(t)
	farmer := registerUser(t, a, domain.TypeFarmer, "f@example.com")
	vendor := registerUser(t, a, domain.TypeVendor, "v@example.com")
	other := registerUser(t, a, domain.TypeVendor, "v2@example.com")
	product := createProduct(t, a, farmer)

	_, err := a.CreateRequest(context.Background(), vendor, RequestParams{
		ProductID: product.ID,
		FarmerID:  farmer.ID,
		VendorID:  other.ID,
		Quantity:  5,
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestCreateRequestNonPositiveQuantity(t *testing.T) {
	a, _ := newTestApp(t)
	farmer := registerUser(t, a, domain.TypeFarmer, "f@example.com")
	vendor := registerUser(t, a, domain.TypeVendor, "v@example.com")
	product := createProduct(t, a, farmer)

	for _, quantity := range []float64{0, -3} {
		_, err := a.CreateRequest(context.Background(), vendor, RequestParams{
			ProductID: product.ID,
			FarmerID:  farmer.ID,
			VendorID:  vendor.ID,
			Quantity:  quantity,
		})
		var validation *ValidationError
		if !errors.As(err, &validation) {
			t.Fatalf("quantity %v: expected ValidationError, got %v", quantity, err)
		}
	}
}

func TestUpdateRequestStatusLifecycle(t *testing.T) {
	a, sink := newTestApp(t)
	farmer := registerUser(t, a, domain.TypeFarmer, "f@example.com")
	vendor := registerUser(t, a, domain.TypeVendor, "v@example.com")
	product := createProduct(t, a, farmer)
	request := openRequest(t, a, vendor, product)

	ctx := context.Background()
	for _, step := range []domain.RequestStatus{domain.StatusApproved, domain.StatusInTransit, domain.StatusCompleted} {
		updated, err := a.UpdateRequestStatus(ctx, farmer, request.ID, step)
		if err != nil {
			t.Fatalf("move to %s: %v", step, err)
		}
		if updated.Status != step {
			t.Fatalf("status = %s, want %s", updated.Status, step)
		}
	}

	ev := sink.last(t)
	if ev.Name != events.RequestUpdated {
		t.Fatalf("event = %s, want %s", ev.Name, events.RequestUpdated)
	}
	payload, ok := ev.Payload.(statusUpdate)
	if !ok || payload.ID != request.ID || payload.Status != domain.StatusCompleted {
		t.Fatalf("payload mismatch: %+v", ev.Payload)
	}

	// completed is terminal
	if _, err := a.UpdateRequestStatus(ctx, farmer, request.ID, domain.StatusPending); err == nil {
		t.Fatal("expected terminal status to reject further moves")
	}
}

func TestUpdateRequestStatusIllegalJump(t *testing.T) {
	a, _ := newTestApp(t)
	farmer := registerUser(t, a, domain.TypeFarmer, "f@example.com")
	vendor := registerUser(t, a, domain.TypeVendor, "v@example.com")
	product := createProduct(t, a, farmer)
	request := openRequest(t, a, vendor, product)

	_, err := a.UpdateRequestStatus(context.Background(), farmer, request.ID, domain.StatusCompleted)
	var transition *InvalidTransitionError
	if !errors.As(err, &transition) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
	if transition.From != domain.StatusPending || transition.To != domain.StatusCompleted {
		t.Fatalf("wrong transition detail: %+v", transition)
	}
}

func TestUpdateRequestStatusNonParticipantForbidden(t *testing.T) {
	a, _ := newTestApp(t)
	farmer := registerUser(t, a, domain.TypeFarmer, "f@example.com")
	vendor := registerUser(t, a, domain.TypeVendor, "v@example.com")
	outsider := registerUser(t, a, domain.TypeLogistics, "l@example.com")
	product := createProduct(t, a, farmer)
	request := openRequest(t, a, vendor, product)

	if _, err := a.UpdateRequestStatus(context.Background(), outsider, request.ID, domain.StatusApproved); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestUpdateRequestStatusUnknownStatus(t *testing.T) {
	a, _ := newTestApp(t)
	farmer := registerUser(t, a, domain.TypeFarmer, "f@example.com")
	vendor := registerUser(t, a, domain.TypeVendor, "v@example.com")
	product := createProduct(t, a, farmer)
	request := openRequest(t, a, vendor, product)

	_, err := a.UpdateRequestStatus(context.Background(), farmer, request.ID, "shipped")
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestCompletedRequestLeavesQuantityUntouched(t *testing.T) {
	a, _ := newTestApp(t)
	farmer := registerUser(t, a, domain.TypeFarmer, "f@example.com")
	vendor := registerUser(t, a, domain.TypeVendor, "v@example.com")
	product := createProduct(t, a, farmer)
	request := openRequest(t, a, vendor, product)

	ctx := context.Background()
	for _, step := range []domain.RequestStatus{domain.StatusApproved, domain.StatusInTransit, domain.StatusCompleted} {
		if _, err := a.UpdateRequestStatus(ctx, vendor, request.ID, step); err != nil {
			t.Fatalf("move to %s: %v", step, err)
		}
	}
	after, err := a.GetProduct(product.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if after.Quantity != product.Quantity {
		t.Fatalf("quantity changed from %v to %v", product.Quantity, after.Quantity)
	}
}

func TestListRequestsByParticipant(t *testing.T) {
	a, _ := newTestApp(t)
	farmer := registerUser(t, a, domain.TypeFarmer, "f@example.com")
	vendor := registerUser(t, a, domain.TypeVendor, "v@example.com")
	product := createProduct(t, a, farmer)
	openRequest(t, a, vendor, product)

	byFarmer, err := a.ListRequests(store.RequestFilter{FarmerID: farmer.ID})
	if err != nil {
		t.Fatalf("list by farmer: %v", err)
	}
	byVendor, err := a.ListRequests(store.RequestFilter{VendorID: vendor.ID})
	if err != nil {
		t.Fatalf("list by vendor: %v", err)
	}
	if len(byFarmer) != 1 || len(byVendor) != 1 {
		t.Fatalf("expected 1 request each side, got %d and %d", len(byFarmer), len(byVendor))
	}
}
