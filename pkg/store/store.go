package store

import "farmlink/pkg/domain"

// ProductFilter narrows and pages product listings.
// Sort must be one of the whitelisted columns; Order is "ASC" or "DESC".
type ProductFilter struct {
	FarmerID string
	Search   string
	Page     int
	Limit    int
	Sort     string
	Order    string
}

// RequestFilter narrows request listings to one side of the trade.
// When both are set, FarmerID wins.
type RequestFilter struct {
	FarmerID string
	VendorID string
}

// Store defines persistence operations for users, products, requests, and messages.
type Store interface {
	// users
	SaveUser(domain.User) error
	HasUserEmail(email string) (bool, error)
	GetUserByEmail(email string) (domain.User, bool, error)
	GetUserByID(id string) (domain.User, bool, error)
	ListUsers() ([]domain.User, error)

	// products
	SaveProduct(domain.Product) error
	GetProduct(id string) (domain.Product, bool, error)
	ListProducts(ProductFilter) ([]domain.Product, int64, error)
	DeleteProduct(id string) (bool, error)

	// requests
	SaveRequest(domain.Request) error
	GetRequest(id string) (domain.Request, bool, error)
	ListRequests(RequestFilter) ([]domain.Request, error)
	SetRequestStatus(id string, status domain.RequestStatus) (bool, error)

	// messages
	SaveMessage(domain.Message) error
	ListMessagesBetween(a, b string) ([]domain.Message, error)
	ListContacts(userID string) ([]string, error)
}

// ProductSortColumns is the whitelist of sortable product columns.
var ProductSortColumns = map[string]struct{}{
	"timestamp": {},
	"price":     {},
	"name":      {},
	"quantity":  {},
}

// NormalizeProductFilter applies paging defaults and clamps sort/order to the whitelist.
func NormalizeProductFilter(f ProductFilter) ProductFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 20
	}
	if _, ok := ProductSortColumns[f.Sort]; !ok {
		f.Sort = "timestamp"
	}
	if f.Order != "ASC" {
		f.Order = "DESC"
	}
	return f
}
