package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"julianmorley.ca/stockpilot/inventory-api/pkg/models"
)

func (s *Store) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	user.SetTimestamps()
	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}
	if _, err := s.collection(usersCollection).InsertOne(ctx, user); err != nil {
		return nil, translate(err)
	}
	return user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.collection(usersCollection).FindOne(ctx, bson.D{{Key: "email", Value: email}}).Decode(&user); err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Store) GetUserByID(ctx context.Context, id bson.ObjectID) (*models.User, error) {
	var user models.User
	if err := s.collection(usersCollection).FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&user); err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	return s.collection(usersCollection).CountDocuments(ctx, bson.D{})
}

func (s *Store) TouchLastLogin(ctx context.Context, id bson.ObjectID) error {
	_, err := s.collection(usersCollection).UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "last_login", Value: time.Now()}}}},
	)
	return err
}
