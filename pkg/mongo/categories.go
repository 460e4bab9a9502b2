package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"julianmorley.ca/stockpilot/inventory-api/pkg/models"
)

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := s.collection(categoriesCollection).Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	categories := make([]models.Category, 0)
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *Store) GetCategoryByID(ctx context.Context, id bson.ObjectID) (*models.Category, error) {
	var category models.Category
	if err := s.collection(categoriesCollection).FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&category); err != nil {
		return nil, translate(err)
	}
	return &category, nil
}

func (s *Store) CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error) {
	if _, err := s.collection(categoriesCollection).InsertOne(ctx, category); err != nil {
		return nil, translate(err)
	}
	return category, nil
}

// DeleteCategory removes the category and detaches its items.
func (s *Store) DeleteCategory(ctx context.Context, id bson.ObjectID) error {
	res, err := s.collection(categoriesCollection).DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}

	_, err = s.collection(itemsCollection).UpdateMany(ctx,
		bson.D{{Key: "category_id", Value: id.Hex()}},
		bson.D{{Key: "$unset", Value: bson.D{{Key: "category_id", Value: ""}}}},
	)
	return err
}
