package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"farmlink/internal/app"
	"farmlink/pkg/auth"
	"farmlink/pkg/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	tokens, err := auth.NewTokenManager("test-secret", auth.TokenOptions{})
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}
	appCore, err := app.New(app.Config{
		Store:  store.NewMemoryStore(),
		Tokens: tokens,
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	srv := httptest.NewServer(New(Config{App: appCore}).Router())
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func registerVia(t *testing.T, srv *httptest.Server, userType, email string) (id, token string) {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/users/register", "", map[string]any{
		"type":     userType,
		"name":     "Test " + userType,
		"email":    email,
		"password": "secret123",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register %s: status %d body %v", email, resp.StatusCode, body)
	}
	user, _ := body["user"].(map[string]any)
	id, _ = user["id"].(string)
	token, _ = body["token"].(string)
	if id == "" || token == "" {
		t.Fatalf("register %s: missing id or token in %v", email, body)
	}
	return id, token
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/health", "", nil)
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("health: status %d body %v", resp.StatusCode, body)
	}
}

func TestMarketplaceFlow(t *testing.T) {
	srv := newTestServer(t)
	farmerID, farmerToken := registerVia(t, srv, "farmer", "f@example.com")
	vendorID, vendorToken := registerVia(t, srv, "vendor", "v@example.com")

	// farmer lists a product
	resp, product := doJSON(t, http.MethodPost, srv.URL+"/api/products", farmerToken, map[string]any{
		"farmerId": farmerID,
		"name":     "Cassava",
		"category": "tubers",
		"quantity": 100,
		"unit":     "kg",
		"price":    2.5,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create product: status %d body %v", resp.StatusCode, product)
	}
	productID, _ := product["id"].(string)

	// listing shows it with the total
	resp, listing := doJSON(t, http.MethodGet, srv.URL+"/api/products?search=cassava", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list products: status %d", resp.StatusCode)
	}
	if total, _ := listing["total"].(float64); total != 1 {
		t.Fatalf("total = %v, want 1", listing["total"])
	}

	// vendor opens a purchase request
	resp, request := doJSON(t, http.MethodPost, srv.URL+"/api/requests", vendorToken, map[string]any{
		"productId": productID,
		"farmerId":  farmerID,
		"vendorId":  vendorID,
		"quantity":  10,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create request: status %d body %v", resp.StatusCode, request)
	}
	if request["status"] != "pending" {
		t.Fatalf("new request status = %v, want pending", request["status"])
	}
	requestID, _ := request["id"].(string)

	// farmer approves
	resp, approved := doJSON(t, http.MethodPatch, srv.URL+"/api/requests/"+requestID, farmerToken, map[string]any{"status": "approved"})
	if resp.StatusCode != http.StatusOK || approved["status"] != "approved" {
		t.Fatalf("approve: status %d body %v", resp.StatusCode, approved)
	}

	// approved cannot jump back to pending
	resp, _ = doJSON(t, http.MethodPatch, srv.URL+"/api/requests/"+requestID, farmerToken, map[string]any{"status": "pending"})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("illegal transition: status %d, want 409", resp.StatusCode)
	}

	// the two trade a message
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/messages", vendorToken, map[string]any{
		"senderId":    vendorID,
		"recipientId": farmerID,
		"text":        "When can I collect?",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("send message: status %d", resp.StatusCode)
	}

	req, err := http.Get(srv.URL + "/api/messages?userId1=" + vendorID + "&userId2=" + farmerID)
	if err != nil {
		t.Fatalf("get thread: %v", err)
	}
	var thread []map[string]any
	if err := json.NewDecoder(req.Body).Decode(&thread); err != nil {
		t.Fatalf("decode thread: %v", err)
	}
	req.Body.Close()
	if len(thread) != 1 || thread[0]["text"] != "When can I collect?" {
		t.Fatalf("wrong thread: %v", thread)
	}

	conv, err := http.Get(srv.URL + "/api/messages/conversations/" + farmerID)
	if err != nil {
		t.Fatalf("get conversations: %v", err)
	}
	var contacts []string
	if err := json.NewDecoder(conv.Body).Decode(&contacts); err != nil {
		t.Fatalf("decode contacts: %v", err)
	}
	conv.Body.Close()
	if len(contacts) != 1 || contacts[0] != vendorID {
		t.Fatalf("contacts = %v, want [%s]", contacts, vendorID)
	}
}

func TestValidationEnvelope(t *testing.T) {
	srv := newTestServer(t)
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/users/register", "", map[string]any{
		"type":     "pilot",
		"name":     "x",
		"email":    "bad",
		"password": "123",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", resp.StatusCode)
	}
	if body["error"] != "Validation failed" {
		t.Fatalf("error = %v, want 'Validation failed'", body["error"])
	}
	errList, ok := body["errors"].([]any)
	if !ok || len(errList) != 4 {
		t.Fatalf("errors = %v, want 4 itemized entries", body["errors"])
	}
}

func TestDuplicateEmailConflict(t *testing.T) {
	srv := newTestServer(t)
	registerVia(t, srv, "farmer", "dup@example.com")
	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/users/register", "", map[string]any{
		"type":     "vendor",
		"name":     "Second",
		"email":    "dup@example.com",
		"password": "secret123",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status %d, want 409", resp.StatusCode)
	}
}

func TestAuthRequiredAndRoleChecks(t *testing.T) {
	srv := newTestServer(t)
	farmerID, _ := registerVia(t, srv, "farmer", "f@example.com")
	_, vendorToken := registerVia(t, srv, "vendor", "v@example.com")

	productBody := map[string]any{
		"farmerId": farmerID,
		"name":     "Cassava",
		"category": "tubers",
		"quantity": 100,
		"unit":     "kg",
		"price":    2.5,
	}

	// no token
	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/products", "", productBody)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("no token: status %d, want 401", resp.StatusCode)
	}

	// garbage token
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/products", "not-a-jwt", productBody)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad token: status %d, want 401", resp.StatusCode)
	}

	// wrong role
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/products", vendorToken, productBody)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("vendor creating product: status %d, want 403", resp.StatusCode)
	}
}

func TestNonParticipantCannotMoveRequest(t *testing.T) {
	srv := newTestServer(t)
	farmerID, farmerToken := registerVia(t, srv, "farmer", "f@example.com")
	vendorID, vendorToken := registerVia(t, srv, "vendor", "v@example.com")
	_, outsiderToken := registerVia(t, srv, "logistics", "l@example.com")

	_, product := doJSON(t, http.MethodPost, srv.URL+"/api/products", farmerToken, map[string]any{
		"farmerId": farmerID,
		"name":     "Cassava",
		"category": "tubers",
		"quantity": 100,
		"unit":     "kg",
		"price":    2.5,
	})
	_, request := doJSON(t, http.MethodPost, srv.URL+"/api/requests", vendorToken, map[string]any{
		"productId": product["id"],
		"farmerId":  farmerID,
		"vendorId":  vendorID,
		"quantity":  10,
	})
	requestID, _ := request["id"].(string)

	resp, _ := doJSON(t, http.MethodPatch, srv.URL+"/api/requests/"+requestID, outsiderToken, map[string]any{"status": "approved"})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("outsider transition: status %d, want 403", resp.StatusCode)
	}
}

func TestGetUserEndpoints(t *testing.T) {
	srv := newTestServer(t)
	farmerID, _ := registerVia(t, srv, "farmer", "f@example.com")

	resp, user := doJSON(t, http.MethodGet, srv.URL+"/api/users/"+farmerID, "", nil)
	if resp.StatusCode != http.StatusOK || user["id"] != farmerID {
		t.Fatalf("get user: status %d body %v", resp.StatusCode, user)
	}
	if _, hasHash := user["passwordHash"]; hasHash {
		t.Fatal("password hash leaked in response")
	}

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/users/"+farmerID+"-missing", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing user: status %d, want 404", resp.StatusCode)
	}
}

func TestProductListPaging(t *testing.T) {
	srv := newTestServer(t)
	farmerID, farmerToken := registerVia(t, srv, "farmer", "f@example.com")
	for i := 0; i < 3; i++ {
		resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/products", farmerToken, map[string]any{
			"farmerId": farmerID,
			"name":     fmt.Sprintf("Crop %d", i),
			"category": "misc",
			"quantity": 10,
			"unit":     "kg",
			"price":    1.5,
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("seed product %d: status %d body %v", i, resp.StatusCode, body)
		}
	}
	resp, listing := doJSON(t, http.MethodGet, srv.URL+"/api/products?page=2&limit=2", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: status %d", resp.StatusCode)
	}
	items, _ := listing["items"].([]any)
	if total, _ := listing["total"].(float64); total != 3 || len(items) != 1 {
		t.Fatalf("page 2 with limit 2: total %v items %d", listing["total"], len(items))
	}
}

func TestUpdateProductImageURL(t *testing.T) {
	srv := newTestServer(t)
	farmerID, farmerToken := registerVia(t, srv, "farmer", "f@example.com")
	_, product := doJSON(t, http.MethodPost, srv.URL+"/api/products", farmerToken, map[string]any{
		"farmerId": farmerID,
		"name":     "Cassava",
		"category": "tubers",
		"quantity": 100,
		"unit":     "kg",
		"price":    2.5,
	})
	productID, _ := product["id"].(string)

	resp, updated := doJSON(t, http.MethodPut, srv.URL+"/api/products/"+productID, farmerToken, map[string]any{
		"image": "https://cdn.example.com/cassava.jpg",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update image: status %d body %v", resp.StatusCode, updated)
	}
	if updated["image"] != "https://cdn.example.com/cassava.jpg" {
		t.Fatalf("image = %v, want the external URL", updated["image"])
	}
	if updated["name"] != "Cassava" {
		t.Fatalf("untouched field changed: %v", updated["name"])
	}
}
