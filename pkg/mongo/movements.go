package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"julianmorley.ca/stockpilot/inventory-api/pkg/models"
)

func (s *Store) RecordStockMovement(ctx context.Context, movement *models.StockMovement) error {
	_, err := s.collection(movementsCollection).InsertOne(ctx, movement)
	return err
}

// ListStockMovements returns the most recent movements for an item, newest first.
func (s *Store) ListStockMovements(ctx context.Context, itemID bson.ObjectID, limit int) ([]models.StockMovement, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.collection(movementsCollection).Find(ctx, bson.D{{Key: "item_id", Value: itemID}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	movements := make([]models.StockMovement, 0)
	if err := cursor.All(ctx, &movements); err != nil {
		return nil, err
	}
	return movements, nil
}
