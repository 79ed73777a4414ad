package storage

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/bosocmputer/prescription_analyzer/configs"
	"github.com/bosocmputer/prescription_analyzer/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names
const (
	StoresCollection        = "janaushadhi_stores"
	DrugReferenceCollection = "drug_reference"
)

var mongoClient *mongo.Client
var mongoDB *mongo.Database

// InitMongoDB connects to the reference database. It is optional: with an
// empty MONGO_URI nothing is connected and lookups use the built-in tables.
func InitMongoDB(cfg *configs.Config) error {
	if cfg == nil || cfg.MongoURI == "" {
		log.Println("ℹ️  MONGO_URI not set, using built-in reference data")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Connect to MongoDB
	clientOptions := options.Client().ApplyURI(cfg.MongoURI)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping to verify connection
	err = client.Ping(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	mongoClient = client
	mongoDB = client.Database(cfg.MongoDBName)

	log.Println("✅ Connected to MongoDB successfully!")
	return nil
}

// GetMongoDB returns the MongoDB database instance, nil when not connected
func GetMongoDB() *mongo.Database {
	return mongoDB
}

// CloseMongoDB closes MongoDB connection
func CloseMongoDB() {
	if mongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
		mongoClient = nil
		mongoDB = nil
		log.Println("MongoDB connection closed")
	}
}

// drugReferenceDoc is one drug_reference document
type drugReferenceDoc struct {
	Name            string `bson:"name"`
	models.DrugInfo `bson:",inline"`
}

// GetStores loads the whole store directory
func GetStores(ctx context.Context) ([]models.Store, error) {
	if mongoDB == nil {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	collection := mongoDB.Collection(StoresCollection)
	cursor, err := collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", StoresCollection, err)
	}
	defer cursor.Close(ctx)

	var results []models.Store
	if err = cursor.All(ctx, &results); err != nil {
		return nil, err
	}

	return results, nil
}

// GetDrugReference loads the reference drug table keyed by lower-case name
func GetDrugReference(ctx context.Context) (map[string]models.DrugInfo, error) {
	if mongoDB == nil {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	collection := mongoDB.Collection(DrugReferenceCollection)
	cursor, err := collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", DrugReferenceCollection, err)
	}
	defer cursor.Close(ctx)

	var docs []drugReferenceDoc
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	table := make(map[string]models.DrugInfo, len(docs))
	for _, d := range docs {
		key := strings.ToLower(strings.TrimSpace(d.Name))
		if key == "" {
			continue
		}
		table[key] = d.DrugInfo
	}
	return table, nil
}
