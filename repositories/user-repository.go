package repositories

import (
	"context"
	"fmt"

	"task-management/backend/apperrors"
	"task-management/backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserRepository is the persistence boundary for team members. Lookups that
// miss return apperrors.ErrNotFound (wrapped).
type UserRepository interface {
	Insert(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByHandle(ctx context.Context, handle string) (*models.User, error)
	FindAll(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type MongoUserRepo struct {
	collection *mongo.Collection
}

func NewMongoUserRepo(collection *mongo.Collection) *MongoUserRepo {
	return &MongoUserRepo{collection: collection}
}

func (r *MongoUserRepo) Insert(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if _, err := r.collection.InsertOne(ctx, user); err != nil {
		return fmt.Errorf("failed to insert user: %v", err)
	}
	return nil
}

func (r *MongoUserRepo) findOne(ctx context.Context, query bson.M, what string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, query).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, apperrors.NotFoundf("user %s not found", what)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %v", err)
	}
	return &user, nil
}

func (r *MongoUserRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id}, id.Hex())
}

func (r *MongoUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email}, email)
}

func (r *MongoUserRepo) FindByHandle(ctx context.Context, handle string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"userid": handle}, handle)
}

func (r *MongoUserRepo) FindAll(ctx context.Context) ([]models.User, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve users: %v", err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %v", err)
	}
	return users, nil
}

func (r *MongoUserRepo) Update(ctx context.Context, user *models.User) error {
	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": user.ID}, user)
	if err != nil {
		return fmt.Errorf("failed to update user: %v", err)
	}
	if result.MatchedCount == 0 {
		return apperrors.NotFoundf("user %s not found", user.ID.Hex())
	}
	return nil
}

func (r *MongoUserRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete user: %v", err)
	}
	if result.DeletedCount == 0 {
		return apperrors.NotFoundf("user %s not found", id.Hex())
	}
	return nil
}
