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

const taskCounterID = "tasks"

// taskDocument is the stored form of a task. Seq keeps insertion order, since
// the zero-padded ids stop sorting correctly past 99.
type taskDocument struct {
	ID          string            `bson:"_id"`
	Seq         int64             `bson:"seq"`
	Title       string            `bson:"title"`
	Description string            `bson:"description"`
	AssignedTo  string            `bson:"assignedTo"`
	Status      models.TaskStatus `bson:"status"`
}

func (d taskDocument) task() models.Task {
	return models.Task{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		AssignedTo:  d.AssignedTo,
		Status:      d.Status,
	}
}

type TaskMongoRepo struct {
	tasksCollection    *mongo.Collection
	countersCollection *mongo.Collection
}

func NewTaskMongoRepo(db *mongo.Database, collection string) *TaskMongoRepo {
	return &TaskMongoRepo{
		tasksCollection:    db.Collection(collection),
		countersCollection: db.Collection("counters"),
	}
}

// EnsureIndexes creates the indexes the queries below rely on.
func (r *TaskMongoRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.tasksCollection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "seq", Value: 1}}},
		{Keys: bson.D{{Key: "assignedTo", Value: 1}, {Key: "seq", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create task indexes: %w", err)
	}
	return nil
}

func (r *TaskMongoRepo) FindAll(ctx context.Context) ([]models.Task, error) {
	return r.find(ctx, bson.M{})
}

func (r *TaskMongoRepo) FindByAssignee(ctx context.Context, username string) ([]models.Task, error) {
	return r.find(ctx, bson.M{"assignedTo": username})
}

func (r *TaskMongoRepo) find(ctx context.Context, filter bson.M) ([]models.Task, error) {
	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})
	cursor, err := r.tasksCollection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve tasks: %w", err)
	}
	defer cursor.Close(ctx)

	tasks := []models.Task{}
	for cursor.Next(ctx) {
		var doc taskDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode task: %w", err)
		}
		tasks = append(tasks, doc.task())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return tasks, nil
}

func (r *TaskMongoRepo) FindByID(ctx context.Context, id string) (models.Task, error) {
	var doc taskDocument
	err := r.tasksCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Task{}, ErrTaskNotFound
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to retrieve task %s: %w", id, err)
	}
	return doc.task(), nil
}

// Insert takes the next value of the tasks counter as the id of task.
func (r *TaskMongoRepo) Insert(ctx context.Context, task models.Task) (models.Task, error) {
	seq, err := r.nextSeq(ctx)
	if err != nil {
		return models.Task{}, err
	}
	task.ID = formatTaskID(seq)

	doc := taskDocument{
		ID:          task.ID,
		Seq:         seq,
		Title:       task.Title,
		Description: task.Description,
		AssignedTo:  task.AssignedTo,
		Status:      task.Status,
	}
	if _, err := r.tasksCollection.InsertOne(ctx, doc); err != nil {
		return models.Task{}, fmt.Errorf("failed to create task: %w", err)
	}
	return task, nil
}

func (r *TaskMongoRepo) nextSeq(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := r.countersCollection.FindOneAndUpdate(ctx,
		bson.M{"_id": taskCounterID},
		bson.M{"$inc": bson.M{"seq": 1}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate task id: %w", err)
	}
	return counter.Seq, nil
}

func (r *TaskMongoRepo) Replace(ctx context.Context, task models.Task) error {
	update := bson.M{"$set": bson.M{
		"title":       task.Title,
		"description": task.Description,
		"assignedTo":  task.AssignedTo,
		"status":      task.Status,
	}}
	result, err := r.tasksCollection.UpdateOne(ctx, bson.M{"_id": task.ID}, update)
	if err != nil {
		return fmt.Errorf("failed to update task %s: %w", task.ID, err)
	}
	if result.MatchedCount == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func (r *TaskMongoRepo) Delete(ctx context.Context, id string) error {
	result, err := r.tasksCollection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete task %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return ErrTaskNotFound
	}
	return nil
}
