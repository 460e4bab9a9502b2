package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
)

type IndexConfig struct {
	CollectionName string
	IndexModel     mongo.IndexModel
}

var requiredIndexes = []IndexConfig{
	// Items: unique SKU
	{
		CollectionName: itemsCollection,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "sku", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_sku_unique"),
		},
	},
	// Items: category filtering and stratified sampling
	{
		CollectionName: itemsCollection,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "category_id", Value: 1}},
			Options: options.Index().SetName("idx_category"),
		},
	},
	// Items: supplier grouping for purchase recommendations
	{
		CollectionName: itemsCollection,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "supplier_id", Value: 1}},
			Options: options.Index().SetName("idx_supplier"),
		},
	},
	// Items: low/out-of-stock queries
	{
		CollectionName: itemsCollection,
		IndexModel: mongo.IndexModel{
			Keys: bson.D{
				{Key: "quantity", Value: 1},
				{Key: "min_stock_level", Value: 1},
			},
			Options: options.Index().SetName("idx_stock_alert"),
		},
	},
	// Items: name search
	{
		CollectionName: itemsCollection,
		IndexModel: mongo.IndexModel{
			Keys: bson.D{
				{Key: "name", Value: "text"},
				{Key: "description", Value: "text"},
			},
			Options: options.Index().
				SetName("idx_item_text_search").
				SetWeights(bson.D{
					{Key: "name", Value: 10},
					{Key: "description", Value: 1},
				}),
		},
	},
	{
		CollectionName: categoriesCollection,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_category_name_unique"),
		},
	},
	{
		CollectionName: usersCollection,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_user_email_unique"),
		},
	},
	// Stock movements: per-item history, newest first
	{
		CollectionName: movementsCollection,
		IndexModel: mongo.IndexModel{
			Keys: bson.D{
				{Key: "item_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_item_history"),
		},
	},
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	s.log.Info("starting index creation", zap.Int("indexes", len(requiredIndexes)))

	for _, idxConfig := range requiredIndexes {
		indexName, err := s.collection(idxConfig.CollectionName).Indexes().CreateOne(ctx, idxConfig.IndexModel)
		if err != nil {
			return fmt.Errorf("creating index on collection %s: %w", idxConfig.CollectionName, err)
		}

		s.log.Debug("index ready",
			zap.String("index", indexName),
			zap.String("collection", idxConfig.CollectionName),
		)
	}

	s.log.Info("all indexes created")
	return nil
}
