package app

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"farmlink/pkg/domain"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func validateRegistration(p RegisterParams) error {
	var errs []string
	if !domain.ValidUserType(p.Type) {
		errs = append(errs, "Valid user type required (farmer, vendor, or logistics)")
	}
	if len(strings.TrimSpace(p.Name)) < 2 {
		errs = append(errs, "Name must be at least 2 characters")
	}
	if !emailPattern.MatchString(p.Email) {
		errs = append(errs, "Valid email required")
	}
	if len(p.Password) < 6 {
		errs = append(errs, "Password must be at least 6 characters")
	}
	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

func validateProduct(p ProductParams) error {
	var errs []string
	if strings.TrimSpace(p.FarmerID) == "" {
		errs = append(errs, "Farmer ID required")
	}
	if len(strings.TrimSpace(p.Name)) < 2 {
		errs = append(errs, "Product name must be at least 2 characters")
	}
	if strings.TrimSpace(p.Category) == "" {
		errs = append(errs, "Category required")
	}
	if p.Quantity <= 0 {
		errs = append(errs, "Valid quantity required (must be greater than 0)")
	}
	if strings.TrimSpace(p.Unit) == "" {
		errs = append(errs, "Unit required")
	}
	if p.Price <= 0 {
		errs = append(errs, "Valid price required (must be greater than 0)")
	}
	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

func validateRequest(p RequestParams) error {
	var errs []string
	if strings.TrimSpace(p.ProductID) == "" {
		errs = append(errs, "Product ID required")
	}
	if strings.TrimSpace(p.FarmerID) == "" {
		errs = append(errs, "Farmer ID required")
	}
	if strings.TrimSpace(p.VendorID) == "" {
		errs = append(errs, "Vendor ID required")
	}
	if p.Quantity <= 0 {
		errs = append(errs, "Valid quantity required (must be greater than 0)")
	}
	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

func validateMessage(p MessageParams) error {
	var errs []string
	if strings.TrimSpace(p.SenderID) == "" {
		errs = append(errs, "Sender ID required")
	}
	if strings.TrimSpace(p.RecipientID) == "" {
		errs = append(errs, "Recipient ID required")
	}
	if strings.TrimSpace(p.Text) == "" {
		errs = append(errs, "Message text required")
	}
	if utf8.RuneCountInString(p.Text) > domain.MaxMessageLength {
		errs = append(errs, "Message text too long (max 5000 characters)")
	}
	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}
