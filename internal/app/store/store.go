package store

import (
	"assignment_desk/internal/domain/repository"
	"assignment_desk/internal/platform/config"
	"assignment_desk/internal/platform/database"
	"context"
	"database/sql"
	"fmt"
	"log"

	"go.etcd.io/bbolt"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store bundles the repositories of the configured driver with the handles
// that must be closed on shutdown.
type Store struct {
	Driver        string
	Users         repository.UserRepository
	Assignments   repository.AssignmentRepository
	Notifications repository.NotificationRepository

	pg          *sql.DB
	mongoClient *mongo.Client
	mongoDB     *mongo.Database
	bolt        *bbolt.DB
}

// Open connects to the store selected by cfg.StoreDriver.
func Open(ctx context.Context, cfg *config.Config) (*Store, error) {
	s := &Store{Driver: cfg.StoreDriver}
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		db, err := database.Connect(ctx, cfg.DBConnStr)
		if err != nil {
			return nil, err
		}
		s.pg = db
		s.Users = repository.NewPgUserRepository(db)
		s.Assignments = repository.NewPgAssignmentRepository(db)
		s.Notifications = repository.NewPgNotificationRepository(db)
	case config.DriverMongo:
		client, db, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		s.mongoClient, s.mongoDB = client, db
		s.Users = repository.NewMongoUserRepository(db)
		s.Assignments = repository.NewMongoAssignmentRepository(db)
		s.Notifications = repository.NewMongoNotificationRepository(db)
	case config.DriverBolt:
		db, err := database.OpenBolt(cfg.BoltPath)
		if err != nil {
			return nil, err
		}
		s.bolt = db
		s.Users = repository.NewBoltUserRepository(db)
		s.Assignments = repository.NewBoltAssignmentRepository(db)
		s.Notifications = repository.NewBoltNotificationRepository(db)
	case config.DriverMemory:
		log.Println("WARN: using the in-memory store; data is lost on restart")
		s.Users = repository.NewMemoryUserRepository()
		s.Assignments = repository.NewMemoryAssignmentRepository()
		s.Notifications = repository.NewMemoryNotificationRepository()
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
	return s, nil
}

// Migrate brings the schema of the opened store up to date.
func (s *Store) Migrate(ctx context.Context) error {
	switch {
	case s.pg != nil:
		return database.Migrate(ctx, s.pg)
	case s.mongoDB != nil:
		return database.EnsureMongoIndexes(ctx, s.mongoDB)
	case s.bolt != nil:
		return database.EnsureBoltBuckets(s.bolt)
	}
	return nil
}

func (s *Store) Close() {
	database.Close(s.pg)
	if s.mongoClient != nil {
		database.DisconnectMongo(s.mongoClient)
	}
	database.CloseBolt(s.bolt)
}
