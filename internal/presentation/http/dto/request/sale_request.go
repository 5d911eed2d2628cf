package request

// SaleLineRequest is one line of a proposed sale. Product lines reference the
// catalog; manual lines carry only a description and an amount.
type SaleLineRequest struct {
	ProductID   string  `json:"product_id"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity" binding:"required"`
	UnitPrice   float64 `json:"unit_price"`
}

// RegisterSaleRequest represents the register sale request payload
type RegisterSaleRequest struct {
	Lines          []SaleLineRequest `json:"lines" binding:"required"`
	PaymentMethod  string            `json:"payment_method" binding:"required"`
	CustomerID     string            `json:"customer_id"`
	CustomerTaxID  string            `json:"customer_tax_id"`
	CustomerName   string            `json:"customer_name"`
	AmountTendered float64           `json:"amount_tendered"`
	PaymentRef     string            `json:"payment_ref"`
}

// QuoteSaleRequest represents the quote request payload
type QuoteSaleRequest struct {
	Lines         []SaleLineRequest `json:"lines" binding:"required"`
	PaymentMethod string            `json:"payment_method" binding:"required"`
	CustomerID    string            `json:"customer_id"`
}

// SaleFilterRequest represents query parameters for listing sales
type SaleFilterRequest struct {
	Page          int    `form:"page"`
	PerPage       int    `form:"per_page"`
	Limit         int    `form:"limit"`
	Search        string `form:"search"`
	Status        string `form:"status"`
	PaymentMethod string `form:"payment_method"`
	CashierID     string `form:"cashier_id"`
	CustomerID    string `form:"customer_id"`
	StartDate     string `form:"start_date"`
	EndDate       string `form:"end_date"`
	SortBy        string `form:"sort_by"`
	SortOrder     string `form:"sort_order"`
}
