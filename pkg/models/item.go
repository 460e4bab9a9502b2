package models

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Item represents a stocked inventory item
type Item struct {
	ID            bson.ObjectID `json:"id" bson:"_id,omitempty"`
	SKU           string        `json:"sku" bson:"sku" validate:"required,min=3,max=50"`
	Name          string        `json:"name" bson:"name" validate:"required,min=1,max=200"`
	Description   string        `json:"description" bson:"description" validate:"max=2000"`
	Quantity      int           `json:"quantity" bson:"quantity" validate:"gte=0"`
	Price         float64       `json:"price" bson:"price" validate:"gte=0"`
	CategoryID    string        `json:"category_id,omitempty" bson:"category_id,omitempty"`
	SupplierID    string        `json:"supplier_id,omitempty" bson:"supplier_id,omitempty"`
	MinStockLevel int           `json:"min_stock_level" bson:"min_stock_level" validate:"gte=0"`
	CreatedAt     time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" bson:"updated_at"`
}

// IsLowStock reports whether the item is at or below its reorder point.
func (i *Item) IsLowStock() bool {
	return i.Quantity <= i.MinStockLevel
}

func (i *Item) IsOutOfStock() bool {
	return i.Quantity == 0
}

// StockValue is quantity times unit price.
func (i *Item) StockValue() float64 {
	return float64(i.Quantity) * i.Price
}

func (i *Item) SetTimestamps() {
	now := time.Now()
	if i.CreatedAt.IsZero() {
		i.CreatedAt = now
	}
	i.UpdatedAt = now
}

type CreateItemRequest struct {
	SKU           string  `json:"sku" validate:"omitempty,min=3,max=50"`
	Name          string  `json:"name" validate:"required,min=1,max=200"`
	Description   string  `json:"description" validate:"max=2000"`
	Quantity      int     `json:"quantity" validate:"gte=0"`
	Price         float64 `json:"price" validate:"gte=0"`
	CategoryID    string  `json:"category_id"`
	SupplierID    string  `json:"supplier_id"`
	MinStockLevel int     `json:"min_stock_level" validate:"gte=0"`
}

// GenerateSKU derives a SKU from the name and category when the client omits one.
func (req *CreateItemRequest) GenerateSKU() string {
	namePrefix := strings.ToUpper(req.Name[:min(3, len(req.Name))])
	categoryPrefix := "GEN"
	if req.CategoryID != "" {
		categoryPrefix = strings.ToUpper(req.CategoryID[len(req.CategoryID)-min(3, len(req.CategoryID)):])
	}
	return fmt.Sprintf("%s-%s-%d", namePrefix, categoryPrefix, time.Now().UnixNano()%1_000_000_000)
}

func (req *CreateItemRequest) ToItem() *Item {
	sku := req.SKU
	if sku == "" {
		sku = req.GenerateSKU()
	}
	item := &Item{
		ID:            bson.NewObjectID(),
		SKU:           sku,
		Name:          req.Name,
		Description:   req.Description,
		Quantity:      req.Quantity,
		Price:         req.Price,
		CategoryID:    req.CategoryID,
		SupplierID:    req.SupplierID,
		MinStockLevel: req.MinStockLevel,
	}
	item.SetTimestamps()
	return item
}

// ItemFilter narrows ListItems queries. Zero values mean "no constraint".
type ItemFilter struct {
	CategoryID string `json:"category_id,omitempty"`
	SupplierID string `json:"supplier_id,omitempty"`
	Search     string `json:"search,omitempty"`
	LowStock   bool   `json:"low_stock,omitempty"`
}

type ListOptions struct {
	Limit  int    `json:"limit"`
	Skip   int    `json:"skip"`
	SortBy string `json:"sort_by,omitempty"`
}

type ItemPage struct {
	Items []Item `json:"items"`
	Total int64  `json:"total"`
}
