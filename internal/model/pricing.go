package model

import "github.com/shopspring/decimal"

var (
	hundred = decimal.NewFromInt(100)

	DefaultMarkup = decimal.NewFromInt(30)

	FreeShippingThreshold = decimal.NewFromInt(100)
	FlatShippingCost      = decimal.RequireFromString("7.99")
)

// ComputeApprovedPrice returns originalPrice * (1 + markup/100) rounded to cents.
func ComputeApprovedPrice(originalPrice, markupPercentage decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromInt(1).Add(markupPercentage.Div(hundred))
	return originalPrice.Mul(factor).Round(2)
}

// DiscountedPrice returns price * (1 - discount/100) rounded to cents.
func DiscountedPrice(price, discountPercentage decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromInt(1).Sub(discountPercentage.Div(hundred))
	return price.Mul(factor).Round(2)
}

// ShippingCost is free strictly above the threshold.
func ShippingCost(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThan(FreeShippingThreshold) {
		return decimal.Zero
	}
	return FlatShippingCost
}

func OrderTotal(subtotal, shippingCost, discount decimal.Decimal) decimal.Decimal {
	return subtotal.Add(shippingCost).Sub(discount)
}

// ValidPercentage reports whether p lies in [0, 100].
func ValidPercentage(p decimal.Decimal) bool {
	return !p.IsNegative() && p.LessThanOrEqual(hundred)
}
