// mongodb.go - Optional MongoDB archive of delivered reports

package storage

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tidewatch/poseidon/configs"
	"github.com/tidewatch/poseidon/internal/forecast"
)

var mongoClient *mongo.Client
var mongoDB *mongo.Database

// InitMongoDB initializes the MongoDB connection. Callers should skip
// this entirely when MONGO_URI is unset; the archive is optional.
func InitMongoDB() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(configs.MONGO_URI)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	mongoClient = client
	mongoDB = client.Database(configs.MONGO_DB_NAME)

	log.Println("✅ Connected to MongoDB successfully!")
	return nil
}

// CloseMongoDB closes the MongoDB connection
func CloseMongoDB() {
	if mongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
		log.Println("MongoDB connection closed")
	}
}

// Enabled reports whether the archive is connected.
func Enabled() bool {
	return mongoDB != nil
}

// DeliveredReport is one archived reconciliation outcome.
type DeliveredReport struct {
	RequestID      string                  `bson:"request_id"`
	ConversationID string                  `bson:"conversation_id"`
	SpotName       string                  `bson:"spot_name"`
	Date           string                  `bson:"date"`
	Sample         forecast.ForecastSample `bson:"sample"`
	DeliveredAt    time.Time               `bson:"delivered_at"`
}

// SaveDeliveredReport archives a delivered report. A nil database makes
// this a no-op so the archive never blocks delivery.
func SaveDeliveredReport(ctx context.Context, report DeliveredReport) error {
	if mongoDB == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := mongoDB.Collection("delivered_reports").InsertOne(ctx, report)
	if err != nil {
		return fmt.Errorf("failed to archive report: %w", err)
	}
	return nil
}
