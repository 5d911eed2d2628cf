package request

// ProductFilterRequest represents query parameters for listing products
type ProductFilterRequest struct {
	Page      int    `form:"page"`
	PerPage   int    `form:"per_page"`
	Search    string `form:"search"`
	LowStock  bool   `form:"low_stock"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order"`
}

// StockAdjustRequest represents a manual stock correction payload
type StockAdjustRequest struct {
	Delta int `json:"delta" binding:"required"`
}

// CustomerFilterRequest represents query parameters for listing customers
type CustomerFilterRequest struct {
	Page    int    `form:"page"`
	PerPage int    `form:"per_page"`
	Search  string `form:"search"`
}
