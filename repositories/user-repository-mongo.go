package repositories

import (
	"context"
	"errors"
	"fmt"

	"task-tracker/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UserMongoRepo struct {
	UserCollection *mongo.Collection
}

func NewUserMongoRepo(db *mongo.Database) *UserMongoRepo {
	return &UserMongoRepo{UserCollection: db.Collection("users")}
}

// EnsureIndexes makes usernames unique at the database level.
func (r *UserMongoRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.UserCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}
	return nil
}

func (r *UserMongoRepo) FindByUsername(ctx context.Context, username string) (models.User, error) {
	var user models.User
	err := r.UserCollection.FindOne(ctx, bson.M{"username": username}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("failed to retrieve user %s: %w", username, err)
	}
	return user, nil
}

func (r *UserMongoRepo) Create(ctx context.Context, user models.User) error {
	if _, err := r.UserCollection.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrUsernameTaken
		}
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

func (r *UserMongoRepo) FindAll(ctx context.Context) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "username", Value: 1}}).SetProjection(bson.M{"password": 0})
	cursor, err := r.UserCollection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve users: %w", err)
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, nil
}
