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

// TaskRepository is the persistence boundary for tasks. Implementations
// return apperrors.ErrNotFound (wrapped) when an id does not resolve.
type TaskRepository interface {
	Insert(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error)
	Find(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	CountByAssignee(ctx context.Context, userID primitive.ObjectID, statuses []models.TaskStatus) (int64, error)
	UnassignAll(ctx context.Context, userID primitive.ObjectID) error
}

type MongoTaskRepo struct {
	collection *mongo.Collection
}

func NewMongoTaskRepo(collection *mongo.Collection) *MongoTaskRepo {
	return &MongoTaskRepo{collection: collection}
}

func (r *MongoTaskRepo) Insert(ctx context.Context, task *models.Task) error {
	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	if _, err := r.collection.InsertOne(ctx, task); err != nil {
		return fmt.Errorf("failed to insert task: %v", err)
	}
	return nil
}

func (r *MongoTaskRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	var task models.Task
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&task)
	if err == mongo.ErrNoDocuments {
		return nil, apperrors.NotFoundf("task %s not found", id.Hex())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch task: %v", err)
	}
	return &task, nil
}

func (r *MongoTaskRepo) Find(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	query := bson.M{}
	if filter.Status != nil {
		query["status"] = *filter.Status
	}
	if filter.Assignee != nil {
		query["assignee"] = *filter.Assignee
	}

	cursor, err := r.collection.Find(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve tasks: %v", err)
	}
	defer cursor.Close(ctx)

	var tasks []models.Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %v", err)
	}
	return tasks, nil
}

func (r *MongoTaskRepo) Update(ctx context.Context, task *models.Task) error {
	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": task.ID}, task)
	if err != nil {
		return fmt.Errorf("failed to update task: %v", err)
	}
	if result.MatchedCount == 0 {
		return apperrors.NotFoundf("task %s not found", task.ID.Hex())
	}
	return nil
}

func (r *MongoTaskRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete task: %v", err)
	}
	if result.DeletedCount == 0 {
		return apperrors.NotFoundf("task %s not found", id.Hex())
	}
	return nil
}

func (r *MongoTaskRepo) CountByAssignee(ctx context.Context, userID primitive.ObjectID, statuses []models.TaskStatus) (int64, error) {
	query := bson.M{"assignee": userID}
	if len(statuses) > 0 {
		query["status"] = bson.M{"$in": statuses}
	}
	count, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to count tasks: %v", err)
	}
	return count, nil
}

func (r *MongoTaskRepo) UnassignAll(ctx context.Context, userID primitive.ObjectID) error {
	_, err := r.collection.UpdateMany(ctx,
		bson.M{"assignee": userID},
		bson.M{"$unset": bson.M{"assignee": ""}},
	)
	if err != nil {
		return fmt.Errorf("failed to unassign tasks: %v", err)
	}
	return nil
}
