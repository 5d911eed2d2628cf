package request

// OpenSessionRequest represents the open cash session request payload
type OpenSessionRequest struct {
	OpeningFloat float64 `json:"opening_float" binding:"min=0"`
	Notes        string  `json:"notes"`
}

// CloseSessionRequest represents the close cash session request payload
type CloseSessionRequest struct {
	ActualClosing float64 `json:"actual_closing" binding:"min=0"`
	Notes         string  `json:"notes"`
}
