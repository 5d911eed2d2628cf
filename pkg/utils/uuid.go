package utils

import (
	"strings"

	"github.com/google/uuid"
)

// ParseUUID parses a string into a UUID
func ParseUUID(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}

// GenerateReceiptNo generates a unique receipt number for a sale
func GenerateReceiptNo() string {
	return "REC-" + strings.ToUpper(uuid.New().String()[:8])
}

// GeneratePaymentReference generates a correlation reference for a payment intent
func GeneratePaymentReference() string {
	return "PAY-" + strings.ToUpper(uuid.New().String()[:12])
}
