package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Transfer statuses.
const (
	TransferPending   = "pending"
	TransferCompleted = "completed"
	TransferCancelled = "cancelled"
)

// ValidTransferStatus reports whether s is a known transfer status.
func ValidTransferStatus(s string) bool {
	return s == TransferPending || s == TransferCompleted || s == TransferCancelled
}

// StockTransfer moves stock from the general pool to a core team member.
// Its linked ledger entry always holds -Quantity.
type StockTransfer struct {
	ID           int64           `json:"id"`
	FromUserID   int64           `json:"fromUserId"`
	ToUserID     int64           `json:"toUserId"`
	ItemName     string          `json:"itemName"`
	Quantity     decimal.Decimal `json:"quantity"`
	Unit         string          `json:"unit"`
	TransferDate time.Time       `json:"transferDate"`
	Description  string          `json:"description"`
	Status       string          `json:"status"`
	StockEntryID int64           `json:"stockEntryId"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`

	// Joined fields (not always populated).
	FromUserName string `json:"fromUserName,omitempty"`
	ToUserName   string `json:"toUserName,omitempty"`
}

// TransferInput is the payload of a new transfer.
type TransferInput struct {
	ToUserID    int64           `json:"toUserId"`
	ItemName    string          `json:"itemName"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
	Description string          `json:"description"`
	Status      string          `json:"status"`
}

// Validate checks the transfer payload.
func (in TransferInput) Validate() error {
	var v validator
	v.check(in.ToUserID > 0, "toUserId", "recipient is required")
	v.check(ValidItem(in.ItemName), "itemName", "item name must be one of: Aluminium, Copper, Scrap")
	v.check(in.Quantity.IsPositive(), "quantity", "quantity must be greater than zero")
	v.add("quantity", ValidateQuantity(in.Quantity, in.Unit))
	v.check(in.Unit == "" || ValidUnit(in.Unit), "unit", "unit must be one of: kg, g, ton")
	v.check(in.Status == "" || ValidTransferStatus(in.Status), "status", "status must be one of: pending, completed, cancelled")
	return v.err()
}

// Normalize converts the quantity to kilograms and applies defaults.
// Call after Validate.
func (in *TransferInput) Normalize() {
	in.Description = strings.TrimSpace(in.Description)
	if in.Status == "" {
		in.Status = TransferCompleted
	}
	if kg, err := ToKilograms(in.Quantity, in.Unit); err == nil {
		in.Quantity = kg
	}
	in.Unit = UnitKilogram
}

// TransferPatch carries optional changes to a transfer.
type TransferPatch struct {
	ToUserID    *int64           `json:"toUserId"`
	ItemName    *string          `json:"itemName"`
	Quantity    *decimal.Decimal `json:"quantity"`
	Unit        *string          `json:"unit"`
	Description *string          `json:"description"`
	Status      *string          `json:"status"`
}

// Merge returns a copy of t with the patch applied and re-validated.
// A unit applies only to a quantity supplied in the same patch.
func (p TransferPatch) Merge(t StockTransfer) (StockTransfer, error) {
	var v validator
	if p.ToUserID != nil {
		v.check(*p.ToUserID > 0, "toUserId", "recipient is required")
		t.ToUserID = *p.ToUserID
	}
	if p.ItemName != nil {
		v.check(ValidItem(*p.ItemName), "itemName", "item name must be one of: Aluminium, Copper, Scrap")
		t.ItemName = *p.ItemName
	}
	if p.Quantity != nil {
		unit := ""
		if p.Unit != nil {
			unit = *p.Unit
		}
		v.check(p.Quantity.IsPositive(), "quantity", "quantity must be greater than zero")
		if err := ValidateQuantity(*p.Quantity, unit); err != nil {
			v.add("quantity", err)
		} else {
			kg, err := ToKilograms(*p.Quantity, unit)
			v.check(err == nil, "unit", "unit must be one of: kg, g, ton")
			t.Quantity = kg
			t.Unit = UnitKilogram
		}
	}
	if p.Description != nil {
		t.Description = strings.TrimSpace(*p.Description)
	}
	if p.Status != nil {
		v.check(ValidTransferStatus(*p.Status), "status", "status must be one of: pending, completed, cancelled")
		t.Status = *p.Status
	}
	return t, v.err()
}

// TransferFilter narrows a transfer listing.
type TransferFilter struct {
	FromUserID *int64
	ToUserID   *int64
	ItemName   string
	StartDate  *time.Time
	EndDate    *time.Time
	Page       Page
}
