package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/dairy-dashboard/internal/domain/models"
)

// Repository defines the interface for evaluation history storage.
type Repository interface {
	SaveEvaluationReport(ctx context.Context, report models.EvaluationReport) error
	RecentEvaluationReports(ctx context.Context, limit int64) ([]models.EvaluationReport, error)
}

// MongoDBRepository implements the Repository interface for MongoDB.
type MongoDBRepository struct {
	client   *mongo.Client
	dbName   string
	collName string
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client:   client,
		dbName:   dbName,
		collName: "evaluation_reports",
	}, nil
}

func (r *MongoDBRepository) collection() *mongo.Collection {
	return r.client.Database(r.dbName).Collection(r.collName)
}

// SaveEvaluationReport stores one KPI evaluation run.
func (r *MongoDBRepository) SaveEvaluationReport(ctx context.Context, report models.EvaluationReport) error {
	if _, err := r.collection().InsertOne(ctx, report); err != nil {
		return fmt.Errorf("failed to insert evaluation report: %w", err)
	}
	return nil
}

// RecentEvaluationReports returns the latest runs, newest first.
func (r *MongoDBRepository) RecentEvaluationReports(ctx context.Context, limit int64) ([]models.EvaluationReport, error) {
	opts := options.Find().SetSort(bson.D{{Key: "generated_at", Value: -1}}).SetLimit(limit)

	cursor, err := r.collection().Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query evaluation reports: %w", err)
	}
	defer cursor.Close(ctx)

	reports := make([]models.EvaluationReport, 0)
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, fmt.Errorf("failed to decode evaluation reports: %w", err)
	}
	return reports, nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
