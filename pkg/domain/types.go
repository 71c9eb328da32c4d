package domain

import "time"

type UserType string

const (
	TypeFarmer    UserType = "farmer"
	TypeVendor    UserType = "vendor"
	TypeLogistics UserType = "logistics"
)

// ValidUserType reports whether t is one of the three marketplace roles.
func ValidUserType(t UserType) bool {
	switch t {
	case TypeFarmer, TypeVendor, TypeLogistics:
		return true
	}
	return false
}

type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusApproved  RequestStatus = "approved"
	StatusDeclined  RequestStatus = "declined"
	StatusInTransit RequestStatus = "in-transit"
	StatusCompleted RequestStatus = "completed"
)

// transitions maps each status to the statuses a request may move to.
// declined and completed are terminal.
var transitions = map[RequestStatus][]RequestStatus{
	StatusPending:   {StatusApproved, StatusDeclined},
	StatusApproved:  {StatusInTransit},
	StatusInTransit: {StatusCompleted},
}

// CanTransition reports whether a request may move from one status to another.
func CanTransition(from, to RequestStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidRequestStatus reports whether s names a known lifecycle status.
func ValidRequestStatus(s RequestStatus) bool {
	switch s {
	case StatusPending, StatusApproved, StatusDeclined, StatusInTransit, StatusCompleted:
		return true
	}
	return false
}

type User struct {
	ID           string    `json:"id"`
	Type         UserType  `json:"type"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Phone        string    `json:"phone,omitempty"`
	Location     string    `json:"location,omitempty"`
	FarmName     string    `json:"farmName,omitempty"`
	BusinessName string    `json:"businessName,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Product struct {
	ID          string    `json:"id"`
	FarmerID    string    `json:"farmerId"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Quantity    float64   `json:"quantity"`
	Unit        string    `json:"unit"`
	Price       float64   `json:"price"`
	Location    string    `json:"location,omitempty"`
	Description string    `json:"description,omitempty"`
	Image       string    `json:"image,omitempty"`
	ImageKey    string    `json:"-"`
	Timestamp   time.Time `json:"timestamp"`
}

type Request struct {
	ID        string        `json:"id"`
	ProductID string        `json:"productId"`
	FarmerID  string        `json:"farmerId"`
	VendorID  string        `json:"vendorId"`
	Quantity  float64       `json:"quantity"`
	Notes     string        `json:"notes,omitempty"`
	Status    RequestStatus `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
}

// IsParticipant reports whether the user is the owning farmer or the
// requesting vendor of this request.
func (r Request) IsParticipant(userID string) bool {
	return userID != "" && (userID == r.FarmerID || userID == r.VendorID)
}

type Message struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"senderId"`
	RecipientID string    `json:"recipientId"`
	Text        string    `json:"text"`
	Timestamp   time.Time `json:"timestamp"`
}

// MaxMessageLength is the upper bound on message text length.
const MaxMessageLength = 5000
