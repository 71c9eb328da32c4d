package server

import (
	"encoding/json"
	"io"
	"net/http"

	"farmlink/internal/app"
	"farmlink/pkg/domain"
	"farmlink/pkg/store"
)

type requestRequest struct {
	ProductID string  `json:"productId"`
	FarmerID  string  `json:"farmerId"`
	VendorID  string  `json:"vendorId"`
	Quantity  float64 `json:"quantity"`
	Notes     string  `json:"notes"`
}

type statusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleRequests(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listRequests(w, r)
	case http.MethodPost:
		s.vendorOnly(s.createRequest).ServeHTTP(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) listRequests(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	requests, err := s.app.ListRequests(store.RequestFilter{
		FarmerID: q.Get("farmerId"),
		VendorID: q.Get("vendorId"),
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	if requests == nil {
		requests = []domain.Request{}
	}
	writeJSON(w, http.StatusOK, requests)
}

func (s *Server) createRequest(w http.ResponseWriter, r *http.Request, actor domain.User) {
	var req requestRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	request, err := s.app.CreateRequest(r.Context(), actor, app.RequestParams{
		ProductID: req.ProductID,
		FarmerID:  req.FarmerID,
		VendorID:  req.VendorID,
		Quantity:  req.Quantity,
		Notes:     req.Notes,
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, request)
}

func (s *Server) handleRequestByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathTail(r.URL.Path, "/api/requests/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		request, err := s.app.GetRequest(id)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, request)
	case http.MethodPatch:
		s.authenticated(func(w http.ResponseWriter, r *http.Request, actor domain.User) {
			s.updateRequestStatus(w, r, actor, id)
		}).ServeHTTP(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) updateRequestStatus(w http.ResponseWriter, r *http.Request, actor domain.User, id string) {
	var req statusRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	request, err := s.app.UpdateRequestStatus(r.Context(), actor, id, domain.RequestStatus(req.Status))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, request)
}
