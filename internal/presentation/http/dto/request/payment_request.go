package request

// BeginQRPaymentRequest starts a QR payment flow for a proposed sale
type BeginQRPaymentRequest struct {
	Lines         []SaleLineRequest `json:"lines" binding:"required"`
	CustomerID    string            `json:"customer_id"`
	CustomerTaxID string            `json:"customer_tax_id"`
	CustomerName  string            `json:"customer_name"`
}
