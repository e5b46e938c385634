// internal/pkg/email/types.go
package email

import (
	"time"
)

// EmailType represents the type of email being sent
type EmailType string

const (
	EmailTypeWelcome           EmailType = "welcome"
	EmailTypeTemporaryPassword EmailType = "temporary_password"
	EmailTypeOrderConfirmation EmailType = "order_confirmation"
	EmailTypePaymentSuccess    EmailType = "payment_success"
	EmailTypePaymentFailed     EmailType = "payment_failed"
)

// Email represents an email message
type Email struct {
	To          []string  `json:"to"`
	Subject     string    `json:"subject"`
	HTMLContent string    `json:"html_content"`
	Type        EmailType `json:"type"`
}

// EmailTemplateData contains common data for all email templates
type EmailTemplateData struct {
	SiteName   string `json:"site_name"`
	SiteURL    string `json:"site_url"`
	SupportURL string `json:"support_url"`
	UserName   string `json:"user_name"`
	UserEmail  string `json:"user_email"`
	Year       int    `json:"year"`
}

// TemporaryPasswordData contains data for the password restore email
type TemporaryPasswordData struct {
	EmailTemplateData
	Password string `json:"password"`
	LoginURL string `json:"login_url"`
}

// OrderConfirmationData contains data for order confirmation email
type OrderConfirmationData struct {
	EmailTemplateData
	OrderNumber   string      `json:"order_number"`
	OrderDate     string      `json:"order_date"`
	OrderTotal    string      `json:"order_total"`
	OrderURL      string      `json:"order_url"`
	Items         []OrderItem `json:"items"`
	Delivery      string      `json:"delivery"`
	City          string      `json:"city"`
	Address       string      `json:"address"`
	PaymentMethod string      `json:"payment_method"`
}

// OrderItem represents an item in the order
type OrderItem struct {
	Name     string `json:"name"`
	Seller   string `json:"seller"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
}

// PaymentNotificationData contains data for payment notifications
type PaymentNotificationData struct {
	EmailTemplateData
	OrderNumber   string `json:"order_number"`
	Amount        string `json:"amount"`
	PaymentMethod string `json:"payment_method"`
	TransactionID string `json:"transaction_id"`
	OrderURL      string `json:"order_url"`
	Date          string `json:"date"`
	Reason        string `json:"reason,omitempty"` // For failed payments
}

// GetBaseTemplateData returns common template data
func GetBaseTemplateData(siteName, siteURL, userName, userEmail string) EmailTemplateData {
	return EmailTemplateData{
		SiteName:   siteName,
		SiteURL:    siteURL,
		SupportURL: siteURL + "/support",
		UserName:   userName,
		UserEmail:  userEmail,
		Year:       time.Now().Year(),
	}
}
