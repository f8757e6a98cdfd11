package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDB represents a MongoDB connection
type MongoDB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// Options configures the history connection. A poller writes a handful of
// documents per session, so the pool stays small.
type Options struct {
	URI         string
	Database    string
	Timeout     time.Duration
	MaxPoolSize uint64
	AppName     string
}

// clientOptions derives driver options from Options. Connect, socket and
// server selection timeouts all follow Timeout.
func clientOptions(opts Options) *options.ClientOptions {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	poolSize := opts.MaxPoolSize
	if poolSize == 0 {
		poolSize = 4
	}
	appName := opts.AppName
	if appName == "" {
		appName = "refreshwatch"
	}

	return options.Client().
		ApplyURI(opts.URI).
		SetAppName(appName).
		SetMaxPoolSize(poolSize).
		SetMinPoolSize(0).
		SetMaxConnIdleTime(5 * time.Minute).
		SetConnectTimeout(timeout).
		SetSocketTimeout(timeout).
		SetServerSelectionTimeout(timeout).
		SetRetryWrites(true).
		SetRetryReads(true)
}

// Connect opens the history database and verifies it answers
func Connect(ctx context.Context, opts Options) (*MongoDB, error) {
	slog.Info("Connecting to MongoDB", "database", opts.Database, "max_pool_size", opts.MaxPoolSize)

	clientOpts := clientOptions(opts)
	if err := clientOpts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid MongoDB options: %w", err)
	}

	connectCtx, cancel := context.WithTimeout(ctx, *clientOpts.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	slog.Info("Connected to MongoDB", "database", opts.Database)

	return &MongoDB{
		Client:   client,
		Database: client.Database(opts.Database),
	}, nil
}

// Disconnect closes the MongoDB connection
func (m *MongoDB) Disconnect(ctx context.Context) error {
	slog.Info("Disconnecting from MongoDB")

	disconnectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := m.Client.Disconnect(disconnectCtx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}

	slog.Info("Successfully disconnected from MongoDB")
	return nil
}

// GetCollection returns a collection by name
func (m *MongoDB) GetCollection(name string) *mongo.Collection {
	return m.Database.Collection(name)
}

// Ping verifies the connection is alive
func (m *MongoDB) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return m.Client.Ping(pingCtx, nil)
}

// Collection names
const (
	CollectionRefreshSessions = "refresh_sessions"
	CollectionDeliveryLogs    = "delivery_logs"
	CollectionRefreshLocks    = "refresh_locks"
)
