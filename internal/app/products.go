package app

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"farmlink/internal/util"
	"farmlink/pkg/domain"
	"farmlink/pkg/events"
	"farmlink/pkg/storage"
	"farmlink/pkg/store"
)

// ProductParams carries the payload for creating a product listing.
type ProductParams struct {
	FarmerID    string
	Name        string
	Category    string
	Quantity    float64
	Unit        string
	Price       float64
	Location    string
	Description string
}

// ProductUpdate carries a partial update; nil fields are left untouched.
// Image replaces the listing's image reference with an external URL.
type ProductUpdate struct {
	Name        *string
	Category    *string
	Quantity    *float64
	Unit        *string
	Price       *float64
	Location    *string
	Description *string
	Image       *string
}

// CreateProduct validates and stores a new listing owned by the acting farmer.
func (a *App) CreateProduct(ctx context.Context, actor domain.User, p ProductParams) (domain.Product, error) {
	if err := validateProduct(p); err != nil {
		return domain.Product{}, err
	}
	if p.FarmerID != actor.ID {
		return domain.Product{}, ErrForbidden
	}
	product := domain.Product{
		ID:          util.NewID(),
		FarmerID:    p.FarmerID,
		Name:        strings.TrimSpace(p.Name),
		Category:    strings.TrimSpace(p.Category),
		Quantity:    p.Quantity,
		Unit:        strings.TrimSpace(p.Unit),
		Price:       p.Price,
		Location:    p.Location,
		Description: p.Description,
		Timestamp:   time.Now().UTC(),
	}
	if err := a.store.SaveProduct(product); err != nil {
		return domain.Product{}, fmt.Errorf("save product: %w", err)
	}
	a.sink.Publish(ctx, events.Event{Name: events.ProductCreated, Payload: product})
	return product, nil
}

// CreateProductWithImage stores the listing together with an uploaded image.
// The image is written to object storage first; if the listing cannot be
// saved afterwards the object is removed again.
func (a *App) CreateProductWithImage(ctx context.Context, actor domain.User, p ProductParams, filename string, r io.Reader, size int64) (domain.Product, error) {
	if a.objects == nil {
		return domain.Product{}, ErrUploadsDisabled
	}
	if err := validateProduct(p); err != nil {
		return domain.Product{}, err
	}
	if p.FarmerID != actor.ID {
		return domain.Product{}, ErrForbidden
	}
	id := util.NewID()
	key := "products/" + id + strings.ToLower(filepath.Ext(filename))
	contentType := storage.ContentTypeForFilename(filename)
	if err := a.objects.Put(ctx, key, r, size, contentType); err != nil {
		return domain.Product{}, fmt.Errorf("store image: %w", err)
	}
	product := domain.Product{
		ID:          id,
		FarmerID:    p.FarmerID,
		Name:        strings.TrimSpace(p.Name),
		Category:    strings.TrimSpace(p.Category),
		Quantity:    p.Quantity,
		Unit:        strings.TrimSpace(p.Unit),
		Price:       p.Price,
		Location:    p.Location,
		Description: p.Description,
		Image:       "/api/products/" + id + "/image",
		ImageKey:    key,
		Timestamp:   time.Now().UTC(),
	}
	if err := a.store.SaveProduct(product); err != nil {
		if delErr := a.objects.Delete(ctx, key); delErr != nil {
			util.LoggerFromContext(ctx).Warn("orphaned product image", "key", key, "error", delErr)
		}
		return domain.Product{}, fmt.Errorf("save product: %w", err)
	}
	a.sink.Publish(ctx, events.Event{Name: events.ProductCreated, Payload: product})
	return product, nil
}

// ProductImageURL returns a short-lived pre-signed URL for the product's image.
func (a *App) ProductImageURL(ctx context.Context, productID string) (string, error) {
	if a.objects == nil {
		return "", ErrUploadsDisabled
	}
	product, ok, err := a.store.GetProduct(productID)
	if err != nil {
		return "", fmt.Errorf("fetch product: %w", err)
	}
	if !ok || product.ImageKey == "" {
		return "", ErrNotFound
	}
	url, err := a.objects.PresignGet(ctx, product.ImageKey, a.presignExpiry)
	if err != nil {
		return "", fmt.Errorf("presign image: %w", err)
	}
	return url, nil
}

// GetProduct returns a listing by id.
func (a *App) GetProduct(id string) (domain.Product, error) {
	product, ok, err := a.store.GetProduct(id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("fetch product: %w", err)
	}
	if !ok {
		return domain.Product{}, ErrNotFound
	}
	return product, nil
}

// ListProducts returns a page of listings with the total matching count.
func (a *App) ListProducts(f store.ProductFilter) ([]domain.Product, int64, error) {
	return a.store.ListProducts(store.NormalizeProductFilter(f))
}

// UpdateProduct applies a partial update to a listing owned by the actor.
func (a *App) UpdateProduct(ctx context.Context, actor domain.User, id string, u ProductUpdate) (domain.Product, error) {
	if u == (ProductUpdate{}) {
		return domain.Product{}, &ValidationError{Errors: []string{"No fields to update"}}
	}
	product, ok, err := a.store.GetProduct(id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("fetch product: %w", err)
	}
	if !ok {
		return domain.Product{}, ErrNotFound
	}
	if product.FarmerID != actor.ID {
		return domain.Product{}, ErrForbidden
	}
	var errs []string
	if u.Name != nil {
		if len(strings.TrimSpace(*u.Name)) < 2 {
			errs = append(errs, "Product name must be at least 2 characters")
		} else {
			product.Name = strings.TrimSpace(*u.Name)
		}
	}
	if u.Category != nil {
		if strings.TrimSpace(*u.Category) == "" {
			errs = append(errs, "Category required")
		} else {
			product.Category = strings.TrimSpace(*u.Category)
		}
	}
	if u.Quantity != nil {
		if *u.Quantity <= 0 {
			errs = append(errs, "Valid quantity required (must be greater than 0)")
		} else {
			product.Quantity = *u.Quantity
		}
	}
	if u.Unit != nil {
		if strings.TrimSpace(*u.Unit) == "" {
			errs = append(errs, "Unit required")
		} else {
			product.Unit = strings.TrimSpace(*u.Unit)
		}
	}
	if u.Price != nil {
		if *u.Price <= 0 {
			errs = append(errs, "Valid price required (must be greater than 0)")
		} else {
			product.Price = *u.Price
		}
	}
	if u.Location != nil {
		product.Location = *u.Location
	}
	if u.Description != nil {
		product.Description = *u.Description
	}
	if u.Image != nil {
		product.Image = *u.Image
		// an external URL supersedes any uploaded object
		if product.ImageKey != "" {
			if a.objects != nil {
				if err := a.objects.Delete(ctx, product.ImageKey); err != nil {
					util.LoggerFromContext(ctx).Warn("orphaned product image", "key", product.ImageKey, "error", err)
				}
			}
			product.ImageKey = ""
		}
	}
	if len(errs) > 0 {
		return domain.Product{}, &ValidationError{Errors: errs}
	}
	if err := a.store.SaveProduct(product); err != nil {
		return domain.Product{}, fmt.Errorf("save product: %w", err)
	}
	return product, nil
}

// DeleteProduct removes a listing owned by the actor, along with its image.
func (a *App) DeleteProduct(ctx context.Context, actor domain.User, id string) error {
	product, ok, err := a.store.GetProduct(id)
	if err != nil {
		return fmt.Errorf("fetch product: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	if product.FarmerID != actor.ID {
		return ErrForbidden
	}
	deleted, err := a.store.DeleteProduct(id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if !deleted {
		return ErrNotFound
	}
	if product.ImageKey != "" && a.objects != nil {
		if err := a.objects.Delete(ctx, product.ImageKey); err != nil {
			util.LoggerFromContext(ctx).Warn("orphaned product image", "key", product.ImageKey, "error", err)
		}
	}
	return nil
}
