package enum

import (
	"database/sql/driver"
	"encoding/json"
	"strings"
)

// PaymentMethod is the normalized payment category of a sale. Heterogeneous
// labels coming from the UI and gateways (locale variants, brand names) are
// collapsed into these five buckets for reconciliation.
type PaymentMethod int

const (
	PaymentMethodCash     PaymentMethod = 0
	PaymentMethodDebit    PaymentMethod = 1
	PaymentMethodCredit   PaymentMethod = 2
	PaymentMethodQR       PaymentMethod = 3
	PaymentMethodTransfer PaymentMethod = 4
)

// AllPaymentMethods lists the five normalized categories in bucket order.
var AllPaymentMethods = []PaymentMethod{
	PaymentMethodCash,
	PaymentMethodDebit,
	PaymentMethodCredit,
	PaymentMethodQR,
	PaymentMethodTransfer,
}

func (m PaymentMethod) String() string {
	names := [...]string{"Cash", "Debit", "Credit", "QR", "Transfer"}
	if int(m) < 0 || int(m) >= len(names) {
		return "Cash"
	}
	return names[m]
}

// IsValid reports whether the value is one of the five buckets
func (m PaymentMethod) IsValid() bool {
	return m >= PaymentMethodCash && m <= PaymentMethodTransfer
}

// ParsePaymentMethod normalizes a free-form payment label into a bucket.
// Returns false when the label is not recognized.
func ParsePaymentMethod(label string) (PaymentMethod, bool) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "cash", "efectivo", "contado":
		return PaymentMethodCash, true
	case "debit", "debito", "débito", "tarjeta de debito", "tarjeta de débito":
		return PaymentMethodDebit, true
	case "credit", "credito", "crédito", "tarjeta", "tarjeta de credito", "tarjeta de crédito":
		return PaymentMethodCredit, true
	case "qr", "mercadopago", "mercado pago", "mp", "billetera":
		return PaymentMethodQR, true
	case "transfer", "transferencia", "cbu", "wire":
		return PaymentMethodTransfer, true
	}
	return PaymentMethodCash, false
}

func (m PaymentMethod) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *PaymentMethod) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*m = PaymentMethod(i)
		return nil
	}
	if parsed, ok := ParsePaymentMethod(str); ok {
		*m = parsed
	}
	return nil
}

func (m PaymentMethod) Value() (driver.Value, error) {
	return int64(m), nil
}

func (m *PaymentMethod) Scan(value interface{}) error {
	if value == nil {
		*m = PaymentMethodCash
		return nil
	}
	switch v := value.(type) {
	case int64:
		*m = PaymentMethod(v)
	case int:
		*m = PaymentMethod(v)
	}
	return nil
}
