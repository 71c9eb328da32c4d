package store

import (
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"farmlink/pkg/domain"
)

const defaultMaxOpenConns = 10

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB, bounds the connection pool, and runs auto-migrations.
func NewGormStore(dsn string, maxOpenConns int) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if maxOpenConns <= 0 {
		maxOpenConns = defaultMaxOpenConns
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("db handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxOpenConns / 2)
	if err := db.AutoMigrate(&UserModel{}, &ProductModel{}, &RequestModel{}, &MessageModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// SaveUser inserts a user. The unique index on email backstops duplicate registration races.
func (s *GormStore) SaveUser(u domain.User) error {
	model := userToModel(u)
	if err := s.db.Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// HasUserEmail checks if email exists.
func (s *GormStore) HasUserEmail(email string) (bool, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetUserByEmail looks up a user by email.
func (s *GormStore) GetUserByEmail(email string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.Where("email = ?", email).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetUserByID returns a user by ID.
func (s *GormStore) GetUserByID(id string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// ListUsers returns all users ordered by created_at.
func (s *GormStore) ListUsers() ([]domain.User, error) {
	var models []UserModel
	if err := s.db.Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.User, 0, len(models))
	for _, m := range models {
		res = append(res, userFromModel(m))
	}
	return res, nil
}

// SaveProduct stores or updates a product.
func (s *GormStore) SaveProduct(p domain.Product) error {
	model := productToModel(p)
	return s.db.Omit("Farmer").Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "category", "quantity", "unit", "price",
			"location", "description", "image", "image_key",
		}),
	}).Create(&model).Error
}

// GetProduct retrieves a product.
func (s *GormStore) GetProduct(id string) (domain.Product, bool, error) {
	var model ProductModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Product{}, false, nil
		}
		return domain.Product{}, false, err
	}
	return productFromModel(model), true, nil
}

// ListProducts returns a page of products matching the filter plus the total count.
func (s *GormStore) ListProducts(f ProductFilter) ([]domain.Product, int64, error) {
	f = NormalizeProductFilter(f)
	tx := s.db.Model(&ProductModel{})
	if f.FarmerID != "" {
		tx = tx.Where("farmer_id = ?", f.FarmerID)
	}
	if f.Search != "" {
		term := "%" + f.Search + "%"
		tx = tx.Where("name ILIKE ? OR description ILIKE ?", term, term)
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var models []ProductModel
	offset := (f.Page - 1) * f.Limit
	err := tx.Order(f.Sort + " " + f.Order).
		Limit(f.Limit).
		Offset(offset).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}
	res := make([]domain.Product, 0, len(models))
	for _, m := range models {
		res = append(res, productFromModel(m))
	}
	return res, total, nil
}

// DeleteProduct removes a product. Returns false when no row matched.
func (s *GormStore) DeleteProduct(id string) (bool, error) {
	tx := s.db.Delete(&ProductModel{}, "id = ?", id)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// SaveRequest inserts a request.
func (s *GormStore) SaveRequest(r domain.Request) error {
	model := requestToModel(r)
	return s.db.Omit("Product", "Farmer", "Vendor").Create(&model).Error
}

// GetRequest retrieves a request.
func (s *GormStore) GetRequest(id string) (domain.Request, bool, error) {
	var model RequestModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Request{}, false, nil
		}
		return domain.Request{}, false, err
	}
	return requestFromModel(model), true, nil
}

// ListRequests returns requests for one side of the trade, newest first.
func (s *GormStore) ListRequests(f RequestFilter) ([]domain.Request, error) {
	tx := s.db.Model(&RequestModel{})
	if f.FarmerID != "" {
		tx = tx.Where("farmer_id = ?", f.FarmerID)
	} else if f.VendorID != "" {
		tx = tx.Where("vendor_id = ?", f.VendorID)
	}
	var models []RequestModel
	if err := tx.Order("timestamp DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Request, 0, len(models))
	for _, m := range models {
		res = append(res, requestFromModel(m))
	}
	return res, nil
}

// SetRequestStatus overwrites the status column. Returns false when no row matched.
func (s *GormStore) SetRequestStatus(id string, status domain.RequestStatus) (bool, error) {
	tx := s.db.Model(&RequestModel{}).Where("id = ?", id).Update("status", string(status))
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// SaveMessage inserts a message.
func (s *GormStore) SaveMessage(m domain.Message) error {
	model := messageToModel(m)
	return s.db.Omit("Sender", "Recipient").Create(&model).Error
}

// ListMessagesBetween returns the full thread of the unordered user pair,
// oldest first.
func (s *GormStore) ListMessagesBetween(a, b string) ([]domain.Message, error) {
	var models []MessageModel
	err := s.db.
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)", a, b, b, a).
		Order("timestamp ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	res := make([]domain.Message, 0, len(models))
	for _, m := range models {
		res = append(res, messageFromModel(m))
	}
	return res, nil
}

// ListContacts returns the distinct counterpart ids the user has exchanged
// messages with.
func (s *GormStore) ListContacts(userID string) ([]string, error) {
	var contacts []string
	err := s.db.Raw(
		`SELECT DISTINCT CASE WHEN sender_id = ? THEN recipient_id ELSE sender_id END
		 FROM messages WHERE sender_id = ? OR recipient_id = ?`,
		userID, userID, userID,
	).Scan(&contacts).Error
	if err != nil {
		return nil, err
	}
	return contacts, nil
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:           u.ID,
		Type:         string(u.Type),
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Phone:        u.Phone,
		Location:     u.Location,
		FarmName:     u.FarmName,
		BusinessName: u.BusinessName,
		CreatedAt:    u.CreatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:           m.ID,
		Type:         domain.UserType(m.Type),
		Name:         m.Name,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Phone:        m.Phone,
		Location:     m.Location,
		FarmName:     m.FarmName,
		BusinessName: m.BusinessName,
		CreatedAt:    m.CreatedAt,
	}
}

func productToModel(p domain.Product) ProductModel {
	return ProductModel{
		ID:          p.ID,
		FarmerID:    p.FarmerID,
		Name:        p.Name,
		Category:    p.Category,
		Quantity:    p.Quantity,
		Unit:        p.Unit,
		Price:       p.Price,
		Location:    p.Location,
		Description: p.Description,
		Image:       p.Image,
		ImageKey:    p.ImageKey,
		Timestamp:   p.Timestamp,
	}
}

func productFromModel(m ProductModel) domain.Product {
	return domain.Product{
		ID:          m.ID,
		FarmerID:    m.FarmerID,
		Name:        m.Name,
		Category:    m.Category,
		Quantity:    m.Quantity,
		Unit:        m.Unit,
		Price:       m.Price,
		Location:    m.Location,
		Description: m.Description,
		Image:       m.Image,
		ImageKey:    m.ImageKey,
		Timestamp:   m.Timestamp,
	}
}

func requestToModel(r domain.Request) RequestModel {
	return RequestModel{
		ID:        r.ID,
		ProductID: r.ProductID,
		FarmerID:  r.FarmerID,
		VendorID:  r.VendorID,
		Quantity:  r.Quantity,
		Notes:     r.Notes,
		Status:    string(r.Status),
		Timestamp: r.Timestamp,
	}
}

func requestFromModel(m RequestModel) domain.Request {
	return domain.Request{
		ID:        m.ID,
		ProductID: m.ProductID,
		FarmerID:  m.FarmerID,
		VendorID:  m.VendorID,
		Quantity:  m.Quantity,
		Notes:     m.Notes,
		Status:    domain.RequestStatus(m.Status),
		Timestamp: m.Timestamp,
	}
}

func messageToModel(m domain.Message) MessageModel {
	return MessageModel{
		ID:          m.ID,
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		Text:        m.Text,
		Timestamp:   m.Timestamp,
	}
}

func messageFromModel(m MessageModel) domain.Message {
	return domain.Message{
		ID:          m.ID,
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		Text:        m.Text,
		Timestamp:   m.Timestamp,
	}
}
