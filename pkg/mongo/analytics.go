package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"

	"julianmorley.ca/stockpilot/inventory-api/pkg/models"
)

// GetInventoryStats aggregates counts, quantity and value over all items in one pass.
func (s *Store) GetInventoryStats(ctx context.Context) (*models.InventoryStats, error) {
	collection := s.collection(itemsCollection)

	pipeline := bson.A{
		bson.D{
			{Key: "$group", Value: bson.D{
				{Key: "_id", Value: nil},
				{Key: "total_items", Value: bson.D{{Key: "$sum", Value: 1}}},
				{Key: "total_quantity", Value: bson.D{{Key: "$sum", Value: "$quantity"}}},
				{Key: "total_value", Value: bson.D{{Key: "$sum", Value: bson.D{
					{Key: "$multiply", Value: bson.A{"$quantity", "$price"}},
				}}}},
				{Key: "average_price", Value: bson.D{{Key: "$avg", Value: "$price"}}},
				{Key: "low_stock_count", Value: bson.D{{Key: "$sum", Value: bson.D{
					{Key: "$cond", Value: bson.A{
						bson.D{{Key: "$lte", Value: bson.A{"$quantity", "$min_stock_level"}}}, 1, 0,
					}},
				}}}},
				{Key: "out_of_stock_count", Value: bson.D{{Key: "$sum", Value: bson.D{
					{Key: "$cond", Value: bson.A{
						bson.D{{Key: "$eq", Value: bson.A{"$quantity", 0}}}, 1, 0,
					}},
				}}}},
				{Key: "categories", Value: bson.D{{Key: "$addToSet", Value: "$category_id"}}},
			}},
		},
		bson.D{
			{Key: "$project", Value: bson.D{
				{Key: "_id", Value: 0},
				{Key: "total_items", Value: 1},
				{Key: "total_quantity", Value: 1},
				{Key: "total_value", Value: bson.D{{Key: "$round", Value: bson.A{"$total_value", 2}}}},
				{Key: "average_price", Value: bson.D{{Key: "$round", Value: bson.A{"$average_price", 2}}}},
				{Key: "low_stock_count", Value: 1},
				{Key: "out_of_stock_count", Value: 1},
				{Key: "categories_count", Value: bson.D{{Key: "$size", Value: "$categories"}}},
			}},
		},
	}

	cursor, err := collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregating inventory stats: %w", err)
	}
	defer cursor.Close(ctx)

	var results []models.InventoryStats
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("decoding inventory stats: %w", err)
	}

	// Empty collection: the $group stage emits nothing.
	if len(results) == 0 {
		return &models.InventoryStats{}, nil
	}
	return &results[0], nil
}
