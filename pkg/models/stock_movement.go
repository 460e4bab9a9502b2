package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// StockMovement is an audit record of a quantity change on an item
type StockMovement struct {
	ID              bson.ObjectID `bson:"_id,omitempty" json:"id"`
	ItemID          bson.ObjectID `bson:"item_id" json:"item_id"`
	SKU             string        `bson:"sku" json:"sku"`
	ChangeType      string        `bson:"change_type" json:"change_type" validate:"required,oneof=adjustment purchase sale return damage recount"`
	QuantityBefore  int           `bson:"quantity_before" json:"quantity_before" validate:"gte=0"`
	QuantityAfter   int           `bson:"quantity_after" json:"quantity_after" validate:"gte=0"`
	QuantityChanged int           `bson:"quantity_changed" json:"quantity_changed"` // signed
	PerformedBy     string        `bson:"performed_by" json:"performed_by"`
	CreatedAt       time.Time     `bson:"created_at" json:"created_at"`
}

// NewStockMovement records a change from before to after and classifies it.
func NewStockMovement(item *Item, before int, performedBy string) *StockMovement {
	m := &StockMovement{
		ID:             bson.NewObjectID(),
		ItemID:         item.ID,
		SKU:            item.SKU,
		QuantityBefore: before,
		QuantityAfter:  item.Quantity,
		PerformedBy:    performedBy,
		CreatedAt:      time.Now(),
	}
	m.QuantityChanged = m.QuantityAfter - m.QuantityBefore
	switch {
	case m.QuantityChanged > 0:
		m.ChangeType = "purchase"
	case m.QuantityChanged < 0:
		m.ChangeType = "sale"
	default:
		m.ChangeType = "recount"
	}
	if performedBy == "" {
		m.PerformedBy = "system"
	}
	return m
}

func (m *StockMovement) GetAbsoluteChange() int {
	if m.QuantityChanged < 0 {
		return -m.QuantityChanged
	}
	return m.QuantityChanged
}

// Description is a human-readable summary, e.g. "decreased by 4 units".
func (m *StockMovement) Description() string {
	direction := "unchanged"
	if m.QuantityChanged > 0 {
		direction = "increased"
	} else if m.QuantityChanged < 0 {
		direction = "decreased"
	}
	return fmt.Sprintf("%s by %d units", direction, m.GetAbsoluteChange())
}
