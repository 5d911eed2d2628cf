package service

import (
	"github.com/matiasvera/almacen-api/internal/config"
	"github.com/matiasvera/almacen-api/internal/domain/enum"
)

// QuoteLine is one priced line for quoting. Amounts are cents.
type QuoteLine struct {
	Quantity  int
	UnitPrice int64
}

// Quote is a priced breakdown of a line list. All amounts are cents.
// Invariant: Total == SubTotal - DiscountTotal + SurchargeTotal.
type Quote struct {
	SubTotal       int64
	DiscountTotal  int64
	SurchargeTotal int64
	Total          int64
}

// pctOf applies a percentage to a cents amount, truncating toward zero
func pctOf(amount int64, pct float64) int64 {
	return int64(float64(amount) * pct / 100)
}

// ComputeQuote prices a line list. Pure function; the register percentages
// come in through cfg, the customer discount through customerDiscountPct.
//
// The order of application is fixed:
//  1. subtotal = sum of line totals
//  2. customer discount over the subtotal
//  3. cash discount over the remainder, Cash payments only
//  4. credit surcharge over the discounted amount, Credit payments only
func ComputeQuote(lines []QuoteLine, customerDiscountPct float64, method enum.PaymentMethod, cfg config.PricingConfig) Quote {
	var subTotal int64
	for _, line := range lines {
		subTotal += line.UnitPrice * int64(line.Quantity)
	}

	var customerDiscount int64
	if customerDiscountPct > 0 {
		customerDiscount = pctOf(subTotal, customerDiscountPct)
	}

	var cashDiscount int64
	if method == enum.PaymentMethodCash && cfg.CashDiscountPct > 0 {
		cashDiscount = pctOf(subTotal-customerDiscount, cfg.CashDiscountPct)
	}

	discountTotal := customerDiscount + cashDiscount

	var surcharge int64
	if method == enum.PaymentMethodCredit && cfg.CreditSurchargePct > 0 {
		surcharge = pctOf(subTotal-discountTotal, cfg.CreditSurchargePct)
	}

	return Quote{
		SubTotal:       subTotal,
		DiscountTotal:  discountTotal,
		SurchargeTotal: surcharge,
		Total:          subTotal - discountTotal + surcharge,
	}
}
