package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"farmlink/internal/app"
	"farmlink/pkg/domain"
	"farmlink/pkg/store"
)

type productRequest struct {
	FarmerID    string  `json:"farmerId"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	Price       float64 `json:"price"`
	Location    string  `json:"location"`
	Description string  `json:"description"`
}

type productUpdateRequest struct {
	Name        *string  `json:"name"`
	Category    *string  `json:"category"`
	Quantity    *float64 `json:"quantity"`
	Unit        *string  `json:"unit"`
	Price       *float64 `json:"price"`
	Location    *string  `json:"location"`
	Description *string  `json:"description"`
	Image       *string  `json:"image"`
}

type productListResponse struct {
	Products []domain.Product `json:"items"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	Limit    int              `json:"limit"`
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listProducts(w, r)
	case http.MethodPost:
		s.farmerOnly(s.createProduct).ServeHTTP(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.ProductFilter{
		FarmerID: q.Get("farmerId"),
		Search:   q.Get("search"),
		Sort:     q.Get("sort"),
		Order:    strings.ToUpper(q.Get("order")),
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	filter = store.NormalizeProductFilter(filter)
	products, total, err := s.app.ListProducts(filter)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	writeJSON(w, http.StatusOK, productListResponse{
		Products: products,
		Total:    total,
		Page:     filter.Page,
		Limit:    filter.Limit,
	})
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request, actor domain.User) {
	var req productRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	product, err := s.app.CreateProduct(r.Context(), actor, productParams(req))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

// handleProductUpload accepts a multipart form with the product fields plus an
// "image" file part.
func (s *Server) handleProductUpload(w http.ResponseWriter, r *http.Request, actor domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()
	quantity, _ := strconv.ParseFloat(r.FormValue("quantity"), 64)
	price, _ := strconv.ParseFloat(r.FormValue("price"), 64)
	params := app.ProductParams{
		FarmerID:    r.FormValue("farmerId"),
		Name:        r.FormValue("name"),
		Category:    r.FormValue("category"),
		Quantity:    quantity,
		Unit:        r.FormValue("unit"),
		Price:       price,
		Location:    r.FormValue("location"),
		Description: r.FormValue("description"),
	}
	product, err := s.app.CreateProductWithImage(r.Context(), actor, params, header.Filename, file, header.Size)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

func (s *Server) handleProductByID(w http.ResponseWriter, r *http.Request) {
	tail := strings.TrimPrefix(r.URL.Path, "/api/products/")
	if id, ok := strings.CutSuffix(tail, "/image"); ok {
		if id == "" || strings.Contains(id, "/") {
			http.NotFound(w, r)
			return
		}
		s.redirectProductImage(w, r, id)
		return
	}
	id, ok := pathTail(r.URL.Path, "/api/products/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		product, err := s.app.GetProduct(id)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, product)
	case http.MethodPut:
		s.farmerOnly(func(w http.ResponseWriter, r *http.Request, actor domain.User) {
			s.updateProduct(w, r, actor, id)
		}).ServeHTTP(w, r)
	case http.MethodDelete:
		s.farmerOnly(func(w http.ResponseWriter, r *http.Request, actor domain.User) {
			s.deleteProduct(w, r, actor, id)
		}).ServeHTTP(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) redirectProductImage(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	url, err := s.app.ProductImageURL(r.Context(), id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request, actor domain.User, id string) {
	var req productUpdateRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	product, err := s.app.UpdateProduct(r.Context(), actor, id, app.ProductUpdate{
		Name:        req.Name,
		Category:    req.Category,
		Quantity:    req.Quantity,
		Unit:        req.Unit,
		Price:       req.Price,
		Location:    req.Location,
		Description: req.Description,
		Image:       req.Image,
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request, actor domain.User, id string) {
	if err := s.app.DeleteProduct(r.Context(), actor, id); err != nil {
		writeAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func productParams(req productRequest) app.ProductParams {
	return app.ProductParams{
		FarmerID:    req.FarmerID,
		Name:        req.Name,
		Category:    req.Category,
		Quantity:    req.Quantity,
		Unit:        req.Unit,
		Price:       req.Price,
		Location:    req.Location,
		Description: req.Description,
	}
}
