package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of minor-unit digits (paise, cents)
const MoneyPlaces = 2

var hundred = decimal.NewFromInt(100)

// ToMinorUnits converts an amount to integer minor units without rounding.
// Amounts with more than two decimal places are rejected.
func ToMinorUnits(amount decimal.Decimal) (int64, error) {
	if amount.IsNegative() {
		return 0, fmt.Errorf("negative amount %s", amount.String())
	}
	minor := amount.Shift(MoneyPlaces)
	if !minor.IsInteger() {
		return 0, fmt.Errorf("amount %s has more than %d decimal places", amount.String(), MoneyPlaces)
	}
	return minor.IntPart(), nil
}

// FromMinorUnits is the inverse of ToMinorUnits
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -MoneyPlaces)
}

// RoundMoney rounds to minor-unit precision
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// Percent returns amount x pct / 100
func Percent(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Div(hundred)
}

// AffiliateCommission sums price x quantity x affiliatePercentage / 100 over the items
func AffiliateCommission(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		if item.AffiliatePercentage.IsZero() {
			continue
		}
		total = total.Add(Percent(item.LineTotal(), item.AffiliatePercentage))
	}
	return RoundMoney(total)
}

// WalletCredit is one seller credit produced by a settlement
type WalletCredit struct {
	SellerID    uuid.UUID
	Amount      decimal.Decimal
	Description string
}

// StockDecrement lowers a product's stock once the order is paid
type StockDecrement struct {
	ProductID uuid.UUID
	Quantity  int
}

// Settlement is the full set of effects applied once a payment is verified.
// A store applies it atomically and only while the order's payment is still pending.
type Settlement struct {
	OrderID           uuid.UUID
	PaymentID         string
	Signature         string
	PaidAt            time.Time
	Currency          string
	ShopID            *uuid.UUID
	Revenue           decimal.Decimal
	AffiliateLinkID   *uuid.UUID
	AffiliateEarnings decimal.Decimal
	CouponCode        *string
	Credits           []WalletCredit
	StockDecrements   []StockDecrement
}

// PayoutCompletion is applied atomically with the processing -> completed transition
type PayoutCompletion struct {
	PayoutID        uuid.UUID
	GatewayPayoutID string
	ProcessedAt     time.Time
}
