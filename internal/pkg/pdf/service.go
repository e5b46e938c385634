// internal/pkg/pdf/service.go
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/shopspring/decimal"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/order"
)

// ErrNotInvoiceable is returned for drafts
var ErrNotInvoiceable = errors.New("only placed orders can be invoiced")

var invoiceTmpl = template.Must(template.New("invoice").Parse(invoiceTemplate))

// Service handles PDF generation
type Service struct {
	company config.CompanyConfig
	now     func() time.Time
}

// NewService creates a new PDF service
func NewService(cfg *config.Config) *Service {
	return &Service{
		company: cfg.Company,
		now:     time.Now,
	}
}

// InvoiceData represents the data passed to the invoice template
type InvoiceData struct {
	InvoiceNumber string
	InvoiceDate   string
	OrderNumber   string
	OrderDate     string
	Status        string
	Company       config.CompanyConfig
	Customer      order.Contact
	Delivery      string
	City          string
	Address       string
	PaymentMethod string
	TransactionID string
	Lines         []InvoiceLine
	Subtotal      string
	Discount      string
	Total         string
	HasDiscount   bool
}

// InvoiceLine is one frozen order product
type InvoiceLine struct {
	Name     string
	Seller   string
	Quantity int
	Price    string
	Total    string
}

// GenerateInvoice generates a PDF invoice for a placed order
func (s *Service) GenerateInvoice(o *order.Order) (*bytes.Buffer, error) {
	htmlContent, err := s.RenderHTML(o)
	if err != nil {
		return nil, err
	}

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF generator: %w", err)
	}

	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)
	pdfg.Grayscale.Set(false)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader([]byte(htmlContent)))
	page.FooterRight.Set("[page]")
	page.FooterFontSize.Set(9)
	page.Zoom.Set(0.95)

	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("failed to create PDF: %w", err)
	}

	return bytes.NewBuffer(pdfg.Bytes()), nil
}

// RenderHTML renders the invoice page that is converted to PDF
func (s *Service) RenderHTML(o *order.Order) (string, error) {
	if !o.InOrder {
		return "", ErrNotInvoiceable
	}

	var buf bytes.Buffer
	if err := invoiceTmpl.Execute(&buf, s.invoiceData(o)); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

func (s *Service) invoiceData(o *order.Order) InvoiceData {
	placed := o.CreatedAt
	if o.PlacedAt != nil {
		placed = *o.PlacedAt
	}

	data := InvoiceData{
		InvoiceNumber: "INV-" + o.Number(),
		InvoiceDate:   s.now().Format("January 2, 2006"),
		OrderNumber:   o.Number(),
		OrderDate:     placed.Format("January 2, 2006"),
		Status:        string(o.Status()),
		Company:       s.company,
		Customer:      order.Contact{FIO: o.FIO, Email: o.Email, Phone: o.Phone},
		Delivery:      deliveryLabel(o.Delivery),
		City:          o.City,
		Address:       o.Address,
		PaymentMethod: paymentLabel(o.PaymentMethod),
	}
	if o.TransactionID != nil {
		data.TransactionID = *o.TransactionID
	}

	for _, p := range o.Products {
		qty := decimal.NewFromInt(int64(p.Quantity))
		data.Lines = append(data.Lines, InvoiceLine{
			Name:     p.Name,
			Seller:   p.SellerName,
			Quantity: p.Quantity,
			Price:    p.DiscountedPrice.StringFixed(2),
			Total:    p.DiscountedPrice.Mul(qty).StringFixed(2),
		})
	}

	discount := o.TotalSum.Sub(o.TotalDiscountedSum)
	data.Subtotal = o.TotalSum.StringFixed(2)
	data.Discount = discount.StringFixed(2)
	data.HasDiscount = discount.IsPositive()
	data.Total = o.TotalDiscountedSum.StringFixed(2)
	return data
}

func deliveryLabel(d order.DeliveryMethod) string {
	switch d {
	case order.DeliveryExpress:
		return "Express"
	case order.DeliveryOrdinary:
		return "Ordinary"
	default:
		return string(d)
	}
}

func paymentLabel(m order.PaymentMethod) string {
	switch m {
	case order.PaymentCard:
		return "Card"
	case order.PaymentAccount:
		return "Bank account"
	default:
		return string(m)
	}
}

// Invoice HTML template
const invoiceTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Invoice {{.InvoiceNumber}}</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 0; padding: 20px; color: #333; }
        .header { display: flex; justify-content: space-between; margin-bottom: 30px; border-bottom: 2px solid #eee; padding-bottom: 20px; }
        .company-info, .invoice-info { flex: 1; }
        .invoice-info { text-align: right; }
        .invoice-title { font-size: 28px; font-weight: bold; color: #2563eb; margin-bottom: 10px; }
        .section-title { font-size: 16px; font-weight: bold; margin-bottom: 10px; color: #374151; }
        .customer { margin-bottom: 30px; }
        .items-table { width: 100%; border-collapse: collapse; margin-bottom: 30px; }
        .items-table th, .items-table td { border: 1px solid #ddd; padding: 12px 8px; text-align: left; }
        .items-table th { background-color: #f8f9fa; font-weight: bold; }
        .items-table .num { text-align: right; width: 90px; }
        .totals { float: right; width: 300px; }
        .totals table { width: 100%; border-collapse: collapse; }
        .totals td { padding: 8px; border-bottom: 1px solid #eee; text-align: right; }
        .total-row { font-size: 18px; font-weight: bold; border-top: 2px solid #333 !important; }
        .status-badge { display: inline-block; padding: 4px 8px; border-radius: 4px; font-size: 12px; font-weight: bold; text-transform: uppercase; }
        .status-paid { background-color: #dcfce7; color: #166534; }
        .status-placed { background-color: #fef3c7; color: #92400e; }
        .footer { margin-top: 50px; padding-top: 20px; border-top: 1px solid #eee; text-align: center; color: #666; font-size: 12px; }
    </style>
</head>
<body>
    <div class="header">
        <div class="company-info">
            <h1>{{.Company.Name}}</h1>
            {{if .Company.Address}}<p>{{.Company.Address}}</p>{{end}}
            {{if .Company.Phone}}<p>Phone: {{.Company.Phone}}</p>{{end}}
            {{if .Company.Email}}<p>Email: {{.Company.Email}}</p>{{end}}
        </div>
        <div class="invoice-info">
            <div class="invoice-title">INVOICE</div>
            <p><strong>Invoice #:</strong> {{.InvoiceNumber}}</p>
            <p><strong>Invoice Date:</strong> {{.InvoiceDate}}</p>
            <p><strong>Order #:</strong> {{.OrderNumber}}</p>
            <p><strong>Order Date:</strong> {{.OrderDate}}</p>
            <p><span class="status-badge status-{{.Status}}">{{.Status}}</span></p>
        </div>
    </div>

    <div class="customer">
        <div class="section-title">Customer:</div>
        <p><strong>{{.Customer.FIO}}</strong></p>
        <p>Email: {{.Customer.Email}}</p>
        <p>Phone: {{.Customer.Phone}}</p>
        <p>Delivery: {{.Delivery}}, {{.City}}, {{.Address}}</p>
        <p>Payment: {{.PaymentMethod}}{{if .TransactionID}} ({{.TransactionID}}){{end}}</p>
    </div>

    <table class="items-table">
        <thead>
            <tr>
                <th>Item</th>
                <th>Seller</th>
                <th class="num">Qty</th>
                <th class="num">Price</th>
                <th class="num">Total</th>
            </tr>
        </thead>
        <tbody>
            {{range .Lines}}
            <tr>
                <td><strong>{{.Name}}</strong></td>
                <td>{{.Seller}}</td>
                <td class="num">{{.Quantity}}</td>
                <td class="num">{{.Price}}</td>
                <td class="num">{{.Total}}</td>
            </tr>
            {{end}}
        </tbody>
    </table>

    <div class="totals">
        <table>
            <tr><td>Subtotal:</td><td>{{.Subtotal}}</td></tr>
            {{if .HasDiscount}}<tr><td>Discount:</td><td>-{{.Discount}}</td></tr>{{end}}
            <tr class="total-row"><td>Total:</td><td>{{.Total}}</td></tr>
        </table>
    </div>

    <div style="clear: both;"></div>

    <div class="footer">
        <p>Thank you for your business!</p>
        {{if .Company.Email}}<p>If you have any questions about this invoice, please contact us at {{.Company.Email}}</p>{{end}}
    </div>
</body>
</html>
`
