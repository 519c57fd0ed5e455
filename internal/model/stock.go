package model

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Quantities travel as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Stock items.
const (
	ItemAluminium = "Aluminium"
	ItemCopper    = "Copper"
	ItemScrap     = "Scrap"
)

// StockItems lists every item tracked by the ledger.
var StockItems = []string{ItemAluminium, ItemCopper, ItemScrap}

// Units accepted at input. Everything is stored in kilograms.
const (
	UnitKilogram = "kg"
	UnitGram     = "g"
	UnitTon      = "ton"
)

// Stock types.
const (
	StockTypeRaw          = "raw"
	StockTypeFinished     = "finished"
	StockTypeSemiFinished = "semi-finished"
)

// Ledger categories used by workflows.
const (
	CategoryWire     = "wire"
	CategoryScrap    = "scrap"
	CategoryTransfer = "transfer"
)

var thousand = decimal.NewFromInt(1000)

// Quantity bounds. The exponent range admits up to 1e12 g before the
// kilogram limit applies.
const (
	maxQuantityPlaces   = 6
	maxQuantityExponent = 12
	maxCoefficientBits  = 64
)

// MaxQuantity is the largest magnitude, in kilograms, a single quantity may carry.
var MaxQuantity = decimal.New(1, 9)

// ValidateQuantity rejects quantities too large or too precise for the ledger.
// The shape is checked before any arithmetic. An unknown unit is left to the
// unit check.
func ValidateQuantity(q decimal.Decimal, unit string) error {
	exp := q.Exponent()
	if exp < -maxQuantityPlaces {
		return fmt.Errorf("quantity may have at most %d decimal places", maxQuantityPlaces)
	}
	if exp > maxQuantityExponent || q.Coefficient().BitLen() > maxCoefficientBits {
		return fmt.Errorf("quantity must not exceed %s kg", MaxQuantity)
	}
	kg, err := ToKilograms(q, unit)
	if err != nil {
		return nil
	}
	if kg.Abs().GreaterThan(MaxQuantity) {
		return fmt.Errorf("quantity must not exceed %s kg", MaxQuantity)
	}
	return nil
}

// ValidItem reports whether name is a ledger item.
func ValidItem(name string) bool {
	return slices.Contains(StockItems, name)
}

// ValidUnit reports whether unit is accepted at input.
func ValidUnit(unit string) bool {
	return unit == UnitKilogram || unit == UnitGram || unit == UnitTon
}

// ValidStockType reports whether t is a known stock type.
func ValidStockType(t string) bool {
	return t == StockTypeRaw || t == StockTypeFinished || t == StockTypeSemiFinished
}

// ToKilograms converts a quantity in unit to kilograms. An empty unit means kg.
func ToKilograms(q decimal.Decimal, unit string) (decimal.Decimal, error) {
	switch unit {
	case UnitKilogram, "":
		return q, nil
	case UnitGram:
		return q.Div(thousand), nil
	case UnitTon:
		return q.Mul(thousand), nil
	default:
		return decimal.Zero, fmt.Errorf("unsupported unit %q", unit)
	}
}

// StockEntry is one signed movement in the ledger.
type StockEntry struct {
	ID          int64           `json:"id"`
	ItemName    string          `json:"itemName"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
	StockType   string          `json:"stockType"`
	Category    string          `json:"category"`
	AddedBy     int64           `json:"addedBy"`
	AddedDate   time.Time       `json:"addedDate"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`

	// Joined fields (not always populated).
	AddedByName string `json:"addedByName,omitempty"`
	TransferID  *int64 `json:"transferId,omitempty"`
}

// StockInput is a manual ledger entry. Quantity is signed.
type StockInput struct {
	ItemName    string          `json:"itemName"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
	StockType   string          `json:"stockType"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
}

// Normalize applies defaults and converts the quantity to kilograms.
func (in *StockInput) Normalize() error {
	in.Description = strings.TrimSpace(in.Description)
	if in.StockType == "" {
		in.StockType = StockTypeRaw
	}
	if in.Category == "" {
		in.Category = CategoryWire
	}
	kg, err := ToKilograms(in.Quantity, in.Unit)
	if err != nil {
		return &ValidationError{Fields: map[string]string{"unit": "unit must be one of: kg, g, ton"}}
	}
	in.Quantity = kg
	in.Unit = UnitKilogram
	return nil
}

// Validate checks the entry before normalization.
func (in StockInput) Validate() error {
	var v validator
	v.check(ValidItem(in.ItemName), "itemName", "item name must be one of: Aluminium, Copper, Scrap")
	v.check(!in.Quantity.IsZero(), "quantity", "quantity is required and must not be zero")
	v.add("quantity", ValidateQuantity(in.Quantity, in.Unit))
	v.check(in.Unit == "" || ValidUnit(in.Unit), "unit", "unit must be one of: kg, g, ton")
	v.check(in.StockType == "" || ValidStockType(in.StockType), "stockType", "stock type must be one of: raw, finished, semi-finished")
	return v.err()
}

// StockPatch carries optional changes to a ledger entry.
type StockPatch struct {
	ItemName    *string          `json:"itemName"`
	Quantity    *decimal.Decimal `json:"quantity"`
	Unit        *string          `json:"unit"`
	StockType   *string          `json:"stockType"`
	Category    *string          `json:"category"`
	Description *string          `json:"description"`
}

// Apply merges the patch over e, converting a supplied quantity to kilograms.
// A unit without a quantity is ignored.
func (p StockPatch) Apply(e *StockEntry) error {
	var v validator
	if p.ItemName != nil {
		v.check(ValidItem(*p.ItemName), "itemName", "item name must be one of: Aluminium, Copper, Scrap")
		e.ItemName = *p.ItemName
	}
	if p.StockType != nil {
		v.check(ValidStockType(*p.StockType), "stockType", "stock type must be one of: raw, finished, semi-finished")
		e.StockType = *p.StockType
	}
	if p.Category != nil {
		e.Category = strings.TrimSpace(*p.Category)
	}
	if p.Description != nil {
		e.Description = strings.TrimSpace(*p.Description)
	}
	if p.Quantity != nil {
		unit := ""
		if p.Unit != nil {
			unit = *p.Unit
		}
		v.check(!p.Quantity.IsZero(), "quantity", "quantity must not be zero")
		if err := ValidateQuantity(*p.Quantity, unit); err != nil {
			v.add("quantity", err)
		} else {
			kg, err := ToKilograms(*p.Quantity, unit)
			v.check(err == nil, "unit", "unit must be one of: kg, g, ton")
			e.Quantity = kg
			e.Unit = UnitKilogram
		}
	}
	return v.err()
}

// StockFilter narrows a ledger listing.
type StockFilter struct {
	StockType string
	ItemName  string
	Search    string
	Page      Page
}

// ItemBalance is the derived quantity of one item.
type ItemBalance struct {
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
	Unit     string          `json:"unit"`
}

// StockQuantities holds the balance of every ledger item.
type StockQuantities struct {
	Aluminium ItemBalance `json:"aluminium"`
	Copper    ItemBalance `json:"copper"`
	Scrap     ItemBalance `json:"scrap"`
}

// NewStockQuantities builds a display view from raw sums, rounded to 2 places.
func NewStockQuantities(sums map[string]decimal.Decimal) StockQuantities {
	b := func(name string) ItemBalance {
		return ItemBalance{Name: name, Quantity: sums[name].Round(2), Unit: UnitKilogram}
	}
	return StockQuantities{
		Aluminium: b(ItemAluminium),
		Copper:    b(ItemCopper),
		Scrap:     b(ItemScrap),
	}
}

// Ledger event actions.
const (
	EventCreate = "create"
	EventUpdate = "update"
	EventDelete = "delete"
)

// LedgerEvent records a mutation of a stock entry.
type LedgerEvent struct {
	ID               int64            `json:"id"`
	EntryID          int64            `json:"entryId"`
	Action           string           `json:"action"`
	ItemName         string           `json:"itemName"`
	Quantity         decimal.Decimal  `json:"quantity"`
	PreviousQuantity *decimal.Decimal `json:"previousQuantity,omitempty"`
	ActorID          *int64           `json:"actorId,omitempty"`
	Note             string           `json:"note,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
}
