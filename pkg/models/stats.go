package models

// InventoryStats is the aggregate view returned by the store's stats pipeline.
type InventoryStats struct {
	TotalItems      int64   `json:"total_items" bson:"total_items"`
	TotalQuantity   int64   `json:"total_quantity" bson:"total_quantity"`
	TotalValue      float64 `json:"total_value" bson:"total_value"`
	AveragePrice    float64 `json:"average_price" bson:"average_price"`
	LowStockCount   int64   `json:"low_stock_count" bson:"low_stock_count"`
	OutOfStockCount int64   `json:"out_of_stock_count" bson:"out_of_stock_count"`
	CategoriesCount int64   `json:"categories_count" bson:"categories_count"`
}
