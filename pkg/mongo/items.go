package mongo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"julianmorley.ca/stockpilot/inventory-api/pkg/models"
)

const maxListLimit = 5000

func itemFilterDoc(filter models.ItemFilter) bson.D {
	doc := bson.D{}
	if filter.CategoryID != "" {
		doc = append(doc, bson.E{Key: "category_id", Value: filter.CategoryID})
	}
	if filter.SupplierID != "" {
		doc = append(doc, bson.E{Key: "supplier_id", Value: filter.SupplierID})
	}
	if filter.Search != "" {
		doc = append(doc, bson.E{Key: "$text", Value: bson.D{{Key: "$search", Value: filter.Search}}})
	}
	if filter.LowStock {
		doc = append(doc, lowStockExpr())
	}
	return doc
}

// lowStockExpr matches quantity <= min_stock_level on the same document.
func lowStockExpr() bson.E {
	return bson.E{Key: "$expr", Value: bson.D{
		{Key: "$lte", Value: bson.A{"$quantity", "$min_stock_level"}},
	}}
}

// sortDoc turns "price" / "-price" into a sort spec. Unknown fields sort by name.
func sortDoc(sortBy string) bson.D {
	direction := 1
	field := sortBy
	if strings.HasPrefix(sortBy, "-") {
		direction = -1
		field = sortBy[1:]
	}
	switch field {
	case "name", "quantity", "price", "created_at", "min_stock_level", "sku":
	default:
		field = "name"
	}
	return bson.D{{Key: field, Value: direction}, {Key: "_id", Value: 1}}
}

// ListItems returns one page of items matching filter plus the total match count.
func (s *Store) ListItems(ctx context.Context, filter models.ItemFilter, opts models.ListOptions) (*models.ItemPage, error) {
	collection := s.collection(itemsCollection)
	query := itemFilterDoc(filter)

	limit := opts.Limit
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}

	findOpts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(int64(max(opts.Skip, 0))).
		SetSort(sortDoc(opts.SortBy))

	cursor, err := collection.Find(ctx, query, findOpts)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer cursor.Close(ctx)

	items := make([]models.Item, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decoding items: %w", err)
	}

	total, err := collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("counting items: %w", err)
	}

	return &models.ItemPage{Items: items, Total: total}, nil
}

func (s *Store) GetItemByID(ctx context.Context, id bson.ObjectID) (*models.Item, error) {
	var item models.Item
	err := s.collection(itemsCollection).FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&item)
	if err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (s *Store) GetItemBySKU(ctx context.Context, sku string) (*models.Item, error) {
	var item models.Item
	err := s.collection(itemsCollection).FindOne(ctx, bson.D{{Key: "sku", Value: sku}}).Decode(&item)
	if err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (s *Store) CreateItem(ctx context.Context, item *models.Item) (*models.Item, error) {
	item.SetTimestamps()
	if _, err := s.collection(itemsCollection).InsertOne(ctx, item); err != nil {
		return nil, translate(err)
	}
	return item, nil
}

// UpdateItem applies a partial update and returns the item before and after the change.
func (s *Store) UpdateItem(ctx context.Context, id bson.ObjectID, updates map[string]interface{}) (before, after *models.Item, err error) {
	before, err = s.GetItemByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	set := bson.M{}
	for field, value := range updates {
		set[field] = value
	}
	set["updated_at"] = time.Now()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Item
	err = s.collection(itemsCollection).
		FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: id}}, bson.D{{Key: "$set", Value: set}}, opts).
		Decode(&updated)
	if err != nil {
		return nil, nil, translate(err)
	}
	return before, &updated, nil
}

func (s *Store) DeleteItem(ctx context.Context, id bson.ObjectID) (*models.Item, error) {
	var deleted models.Item
	err := s.collection(itemsCollection).FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&deleted)
	if err != nil {
		return nil, translate(err)
	}
	return &deleted, nil
}

// GetLowStockItems returns items with quantity <= threshold, or at/below their own
// min_stock_level when threshold is not positive.
func (s *Store) GetLowStockItems(ctx context.Context, threshold int) ([]models.Item, error) {
	query := bson.D{lowStockExpr()}
	if threshold > 0 {
		query = bson.D{{Key: "quantity", Value: bson.D{{Key: "$lte", Value: threshold}}}}
	}
	return s.findItems(ctx, query)
}

func (s *Store) GetOutOfStockItems(ctx context.Context) ([]models.Item, error) {
	return s.findItems(ctx, bson.D{{Key: "quantity", Value: 0}})
}

func (s *Store) findItems(ctx context.Context, query bson.D) ([]models.Item, error) {
	opts := options.Find().SetSort(bson.D{{Key: "quantity", Value: 1}, {Key: "name", Value: 1}}).SetLimit(maxListLimit)
	cursor, err := s.collection(itemsCollection).Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]models.Item, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}
