package service

import (
	"testing"

	"github.com/matiasvera/almacen-api/internal/config"
	"github.com/matiasvera/almacen-api/internal/domain/enum"
)

var testPricing = config.PricingConfig{
	CashDiscountPct:    5,
	CreditSurchargePct: 10,
}

func TestComputeQuoteCashWithCustomerDiscount(t *testing.T) {
	lines := []QuoteLine{{Quantity: 2, UnitPrice: 500}}

	quote := ComputeQuote(lines, 10, enum.PaymentMethodCash, testPricing)

	if quote.SubTotal != 1000 {
		t.Errorf("SubTotal = %d, want 1000", quote.SubTotal)
	}
	// 10% of 1000 = 100, then 5% of the remaining 900 = 45
	if quote.DiscountTotal != 145 {
		t.Errorf("DiscountTotal = %d, want 145", quote.DiscountTotal)
	}
	if quote.SurchargeTotal != 0 {
		t.Errorf("SurchargeTotal = %d, want 0", quote.SurchargeTotal)
	}
	if quote.Total != 855 {
		t.Errorf("Total = %d, want 855", quote.Total)
	}
}

func TestComputeQuoteCreditSurcharge(t *testing.T) {
	lines := []QuoteLine{{Quantity: 1, UnitPrice: 1000}}

	quote := ComputeQuote(lines, 0, enum.PaymentMethodCredit, testPricing)

	if quote.DiscountTotal != 0 {
		t.Errorf("DiscountTotal = %d, want 0", quote.DiscountTotal)
	}
	if quote.SurchargeTotal != 100 {
		t.Errorf("SurchargeTotal = %d, want 100", quote.SurchargeTotal)
	}
	if quote.Total != 1100 {
		t.Errorf("Total = %d, want 1100", quote.Total)
	}
}

func TestComputeQuoteCreditSurchargeOnDiscountedAmount(t *testing.T) {
	lines := []QuoteLine{{Quantity: 1, UnitPrice: 1000}}

	quote := ComputeQuote(lines, 10, enum.PaymentMethodCredit, testPricing)

	// surcharge applies to 900, not the raw subtotal
	if quote.SurchargeTotal != 90 {
		t.Errorf("SurchargeTotal = %d, want 90", quote.SurchargeTotal)
	}
	if quote.Total != 990 {
		t.Errorf("Total = %d, want 990", quote.Total)
	}
}

func TestComputeQuoteNeutralMethods(t *testing.T) {
	lines := []QuoteLine{{Quantity: 3, UnitPrice: 250}}

	for _, method := range []enum.PaymentMethod{enum.PaymentMethodDebit, enum.PaymentMethodQR, enum.PaymentMethodTransfer} {
		quote := ComputeQuote(lines, 0, method, testPricing)
		if quote.Total != 750 {
			t.Errorf("%s: Total = %d, want 750", method, quote.Total)
		}
		if quote.DiscountTotal != 0 || quote.SurchargeTotal != 0 {
			t.Errorf("%s: expected no adjustments, got discount %d surcharge %d",
				method, quote.DiscountTotal, quote.SurchargeTotal)
		}
	}
}

func TestComputeQuoteTruncatesFractionalCents(t *testing.T) {
	lines := []QuoteLine{{Quantity: 1, UnitPrice: 999}}

	quote := ComputeQuote(lines, 7, enum.PaymentMethodCash, testPricing)

	// 7% of 999 = 69.93, truncated to 69; 5% of 930 = 46.5, truncated to 46
	if quote.DiscountTotal != 115 {
		t.Errorf("DiscountTotal = %d, want 115", quote.DiscountTotal)
	}
	if quote.Total != 884 {
		t.Errorf("Total = %d, want 884", quote.Total)
	}
}

func TestComputeQuoteIdentity(t *testing.T) {
	lines := []QuoteLine{
		{Quantity: 2, UnitPrice: 337},
		{Quantity: 1, UnitPrice: 129},
		{Quantity: 5, UnitPrice: 81},
	}

	for _, method := range enum.AllPaymentMethods {
		for _, discount := range []float64{0, 3, 12.5, 50} {
			quote := ComputeQuote(lines, discount, method, testPricing)
			if got := quote.SubTotal - quote.DiscountTotal + quote.SurchargeTotal; got != quote.Total {
				t.Errorf("%s discount %.1f: identity broken, got %d want %d",
					method, discount, got, quote.Total)
			}
		}
	}
}

func TestComputeQuoteEmptyLines(t *testing.T) {
	quote := ComputeQuote(nil, 10, enum.PaymentMethodCash, testPricing)
	if quote.Total != 0 || quote.SubTotal != 0 {
		t.Errorf("expected zero quote, got %+v", quote)
	}
}
