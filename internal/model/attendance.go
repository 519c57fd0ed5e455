package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Attendance statuses.
const (
	StatusCheckedIn  = "checked-in"
	StatusCheckedOut = "checked-out"
)

// Attendance is one worker session between check-in and check-out.
type Attendance struct {
	ID           int64         `json:"id"`
	UserID       int64         `json:"userId"`
	ItemID       *int64        `json:"itemId"`
	CheckInTime  time.Time     `json:"checkInTime"`
	CheckOutTime *time.Time    `json:"checkOutTime"`
	Status       string        `json:"status"`
	Item         *ItemProduced `json:"item,omitempty"`
}

// ProducedInput describes the item reported at checkout.
type ProducedInput struct {
	ItemName string          `json:"itemName"`
	Quantity decimal.Decimal `json:"quantity"`
	Unit     string          `json:"unit"`
}

// CheckoutRequest closes a session and reports production.
type CheckoutRequest struct {
	WireUsedType     string          `json:"wireUsedType"`
	WireUsedQuantity decimal.Decimal `json:"wireUsedQuantity"`
	ItemProduced     ProducedInput   `json:"itemProduced"`
	ScrapQuantity    decimal.Decimal `json:"scrapQuantity"`
	Description      string          `json:"description"`
}

// Normalize trims names and lower-cases the wire type.
func (r *CheckoutRequest) Normalize() {
	r.WireUsedType = strings.ToLower(strings.TrimSpace(r.WireUsedType))
	r.ItemProduced.ItemName = strings.TrimSpace(r.ItemProduced.ItemName)
	r.Description = strings.TrimSpace(r.Description)
	if r.ItemProduced.Unit == "" {
		r.ItemProduced.Unit = UnitKilogram
	}
}

// Validate checks the checkout payload.
func (r CheckoutRequest) Validate() error {
	var v validator
	v.check(r.WireUsedType == WireAluminium || r.WireUsedType == WireCopper,
		"wireUsedType", "wire used type must be either aluminium or copper")
	v.check(r.WireUsedQuantity.IsPositive(), "wireUsedQuantity", "wire used quantity must be greater than zero")
	v.add("wireUsedQuantity", ValidateQuantity(r.WireUsedQuantity, UnitKilogram))
	v.check(r.ItemProduced.ItemName != "", "itemProduced.itemName", "produced item name is required")
	v.check(r.ItemProduced.Quantity.IsPositive(), "itemProduced.quantity", "produced quantity must be greater than zero")
	v.add("itemProduced.quantity", ValidateQuantity(r.ItemProduced.Quantity, r.ItemProduced.Unit))
	v.check(ValidUnit(r.ItemProduced.Unit), "itemProduced.unit", "unit must be one of: kg, g, ton")
	v.check(!r.ScrapQuantity.IsNegative(), "scrapQuantity", "scrap quantity cannot be negative")
	v.add("scrapQuantity", ValidateQuantity(r.ScrapQuantity, UnitKilogram))
	return v.err()
}

// WireUsed reports what a checkout drew from the ledger.
type WireUsed struct {
	Type     string          `json:"type"`
	Quantity decimal.Decimal `json:"quantity"`
}

// CheckoutResult is the outcome of a successful checkout.
type CheckoutResult struct {
	Attendance   *Attendance     `json:"attendance"`
	ItemProduced *ItemProduced   `json:"itemProduced"`
	WireUsed     WireUsed        `json:"wireUsed"`
	ScrapAdded   decimal.Decimal `json:"scrapAdded"`
}

// HistoryFilter narrows a worker's attendance history.
type HistoryFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Page      Page
}
