package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Wire types a worker can draw during production.
const (
	WireAluminium = "aluminium"
	WireCopper    = "copper"
)

// WireItem maps a wire type to its ledger item. Anything other than
// aluminium draws from copper.
func WireItem(wireType string) string {
	if strings.EqualFold(wireType, WireAluminium) {
		return ItemAluminium
	}
	return ItemCopper
}

// ItemProduced records the output of one attendance session.
type ItemProduced struct {
	ID               int64            `json:"id"`
	AttendanceID     int64            `json:"attendanceId"`
	UserID           int64            `json:"userId"`
	ItemName         string           `json:"itemName"`
	Quantity         decimal.Decimal  `json:"quantity"`
	Unit             string           `json:"unit"`
	ProductionDate   time.Time        `json:"productionDate"`
	WireUsedType     string           `json:"wireUsedType"`
	WireUsedQuantity decimal.Decimal  `json:"wireUsedQuantity"`
	ScrapQuantity    *decimal.Decimal `json:"scrapQuantity,omitempty"`
	Description      *string          `json:"description,omitempty"`

	// Joined fields (not always populated).
	UserName string `json:"userName,omitempty"`
}

// ProducibleItem aggregates everything produced under one item name.
type ProducibleItem struct {
	ItemName      string          `json:"itemName"`
	TotalProduced decimal.Decimal `json:"totalProduced"`
	LastProduced  time.Time       `json:"lastProduced"`
}

// ProductionFilter narrows the production log.
type ProductionFilter struct {
	UserID    *int64
	StartDate *time.Time
	EndDate   *time.Time
}
