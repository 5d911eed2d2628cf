package enum

import (
	"database/sql/driver"
	"encoding/json"
	"strings"
)

// SaleStatus represents the status of a committed sale. Sales are immutable
// once committed except for voiding, which restores the stock of their lines.
type SaleStatus int

const (
	SaleStatusCompleted SaleStatus = 0
	SaleStatusVoided    SaleStatus = 1
)

func (s SaleStatus) String() string {
	names := [...]string{"Completed", "Voided"}
	if int(s) < 0 || int(s) >= len(names) {
		return "Completed"
	}
	return names[s]
}

// ParseSaleStatus parses a status label, case-insensitively
func ParseSaleStatus(label string) (SaleStatus, bool) {
	switch strings.ToLower(label) {
	case "completed":
		return SaleStatusCompleted, true
	case "voided":
		return SaleStatusVoided, true
	}
	return SaleStatusCompleted, false
}

func (s SaleStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *SaleStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*s = SaleStatus(i)
		return nil
	}
	switch str {
	case "Completed":
		*s = SaleStatusCompleted
	case "Voided":
		*s = SaleStatusVoided
	}
	return nil
}

func (s SaleStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *SaleStatus) Scan(value interface{}) error {
	if value == nil {
		*s = SaleStatusCompleted
		return nil
	}
	switch v := value.(type) {
	case int64:
		*s = SaleStatus(v)
	case int:
		*s = SaleStatus(v)
	}
	return nil
}
