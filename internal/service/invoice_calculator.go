package service

import (
	"time"

	"go-healthcare-practice/internal/domain/entity"
	"go-healthcare-practice/pkg/apperror"

	"github.com/shopspring/decimal"
)

const moneyPlaces = 2

// Totals are the derived money fields of an invoice.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
	Balance  decimal.Decimal
}

func roundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(moneyPlaces)
}

// ComputeItemTotal is quantity * unit price - discount + tax, with item
// discount and tax as absolute amounts.
func ComputeItemTotal(item entity.BillingItem) decimal.Decimal {
	gross := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
	return roundMoney(gross.Sub(item.Discount).Add(item.Tax))
}

// ComputeTotals sums item totals as stored on the items. Call PrepareItems
// first to make those totals trustworthy.
func ComputeTotals(items []entity.BillingItem, tax, discount, amountPaid decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Total)
	}
	subtotal = roundMoney(subtotal)
	tax = roundMoney(tax)
	discount = roundMoney(discount)
	total := subtotal.Add(tax).Sub(discount)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Discount: discount,
		Total:    total,
		Balance:  total.Sub(roundMoney(amountPaid)),
	}
}

// PrepareItems validates line items and fills in each item's total. A
// caller-supplied non-zero total must match the computed one.
func PrepareItems(items []entity.BillingItem) error {
	if len(items) == 0 {
		return apperror.Validation("at least one billing item is required")
	}
	for i := range items {
		item := &items[i]
		line := i + 1
		switch {
		case item.Service == "":
			return apperror.Validation("item %d: service is required", line)
		case item.Quantity < 1:
			return apperror.Validation("item %d: quantity must be at least 1", line)
		case item.UnitPrice.IsNegative():
			return apperror.Validation("item %d: unit price must not be negative", line)
		case item.Discount.IsNegative():
			return apperror.Validation("item %d: discount must not be negative", line)
		case item.Tax.IsNegative():
			return apperror.Validation("item %d: tax must not be negative", line)
		}

		item.UnitPrice = roundMoney(item.UnitPrice)
		item.Discount = roundMoney(item.Discount)
		item.Tax = roundMoney(item.Tax)

		computed := ComputeItemTotal(*item)
		if computed.IsNegative() {
			return apperror.Validation("item %d: discount exceeds the line amount", line)
		}
		if !item.Total.IsZero() && !roundMoney(item.Total).Equal(computed) {
			return apperror.Validation("item %d: total %s does not match quantity x unit price - discount + tax (%s)",
				line, item.Total.StringFixed(moneyPlaces), computed.StringFixed(moneyPlaces))
		}
		item.Total = computed
	}
	return nil
}

// DeriveStatus applies the automatic transitions: a settled balance means
// paid, a pending invoice past its due date becomes overdue. Cancelled and
// refunded invoices are never touched.
func DeriveStatus(current entity.BillingStatus, balance decimal.Decimal, dueDate, now time.Time) entity.BillingStatus {
	switch current {
	case entity.BillingStatusCancelled, entity.BillingStatusRefunded:
		return current
	}
	if !balance.IsPositive() {
		return entity.BillingStatusPaid
	}
	if current == entity.BillingStatusPending && dueDate.Before(now) {
		return entity.BillingStatusOverdue
	}
	return current
}

// Recalculate recomputes every derived money field and the status of b
// together, so they are never persisted out of step.
func Recalculate(b *entity.Billing, now time.Time) error {
	if b.Tax.IsNegative() {
		return apperror.Validation("tax must not be negative")
	}
	if b.Discount.IsNegative() {
		return apperror.Validation("discount must not be negative")
	}
	if b.AmountPaid.IsNegative() {
		return apperror.Validation("amount paid must not be negative")
	}

	totals := ComputeTotals(b.Items, b.Tax, b.Discount, b.AmountPaid)
	if totals.Total.IsNegative() {
		return apperror.Validation("discount exceeds subtotal plus tax")
	}

	b.Subtotal = totals.Subtotal
	b.Tax = totals.Tax
	b.Discount = totals.Discount
	b.Total = totals.Total
	b.Balance = totals.Balance
	b.Status = DeriveStatus(b.Status, b.Balance, b.DueDate, now)
	return nil
}
