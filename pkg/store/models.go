package store

import "time"

// GORM models used for persistence.
type UserModel struct {
	ID           string    `gorm:"primaryKey;size:36"`
	Type         string    `gorm:"size:20;not null"`
	Name         string    `gorm:"not null"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	Phone        string    `gorm:"size:50"`
	Location     string
	FarmName     string
	BusinessName string
	CreatedAt    time.Time `gorm:"not null"`
}

func (UserModel) TableName() string { return "users" }

type ProductModel struct {
	ID          string    `gorm:"primaryKey;size:36"`
	FarmerID    string    `gorm:"size:36;not null;index:idx_products_farmer_ts,priority:1"`
	Farmer      UserModel `gorm:"foreignKey:FarmerID"`
	Name        string    `gorm:"not null"`
	Category    string    `gorm:"size:100;not null"`
	Quantity    float64   `gorm:"not null"`
	Unit        string    `gorm:"size:50;not null"`
	Price       float64   `gorm:"not null"`
	Location    string
	Description string    `gorm:"type:text"`
	Image       string    `gorm:"type:text"`
	ImageKey    string
	Timestamp   time.Time `gorm:"not null;index:idx_products_farmer_ts,priority:2"`
}

func (ProductModel) TableName() string { return "products" }

type RequestModel struct {
	ID        string       `gorm:"primaryKey;size:36"`
	ProductID string       `gorm:"size:36;not null"`
	Product   ProductModel `gorm:"foreignKey:ProductID"`
	FarmerID  string       `gorm:"size:36;not null;index:idx_requests_farmer_ts,priority:1"`
	Farmer    UserModel    `gorm:"foreignKey:FarmerID"`
	VendorID  string       `gorm:"size:36;not null;index:idx_requests_vendor_ts,priority:1"`
	Vendor    UserModel    `gorm:"foreignKey:VendorID"`
	Quantity  float64      `gorm:"not null"`
	Notes     string       `gorm:"type:text"`
	Status    string       `gorm:"size:20;not null;default:pending"`
	Timestamp time.Time    `gorm:"not null;index:idx_requests_farmer_ts,priority:2;index:idx_requests_vendor_ts,priority:2"`
}

func (RequestModel) TableName() string { return "requests" }

type MessageModel struct {
	ID          string    `gorm:"primaryKey;size:36"`
	SenderID    string    `gorm:"size:36;not null;index:idx_messages_pair_ts,priority:1"`
	Sender      UserModel `gorm:"foreignKey:SenderID"`
	RecipientID string    `gorm:"size:36;not null;index:idx_messages_pair_ts,priority:2"`
	Recipient   UserModel `gorm:"foreignKey:RecipientID"`
	Text        string    `gorm:"type:text;not null"`
	Timestamp   time.Time `gorm:"not null;index:idx_messages_pair_ts,priority:3"`
}

func (MessageModel) TableName() string { return "messages" }
