package connect

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/joshua-takyi/nearby/internal/config"
	"github.com/joshua-takyi/nearby/internal/models"
	pubnub "github.com/pubnub/go/v7"
	"github.com/redis/go-redis/v9"
	"github.com/supabase-community/supabase-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Clients bundles every external connection the server opens.
type Clients struct {
	Supabase   *supabase.Client
	MongoDB    *mongo.Client
	Redis      *redis.Client
	PubNub     *pubnub.PubNub
	Cloudinary *cloudinary.Cloudinary
	SQLite     *models.SqliteRepo
}

// Close releases whatever was opened. Safe on a partially filled value.
func (cl *Clients) Close(ctx context.Context) error {
	var firstErr error
	if cl.MongoDB != nil {
		if err := cl.MongoDB.Disconnect(ctx); err != nil {
			firstErr = fmt.Errorf("failed to disconnect MongoDB: %w", err)
		}
		cl.MongoDB = nil
	}
	if cl.Redis != nil {
		if err := cl.Redis.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close Redis: %w", err)
		}
		cl.Redis = nil
	}
	if cl.SQLite != nil {
		if err := cl.SQLite.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close SQLite: %w", err)
		}
		cl.SQLite = nil
	}
	if cl.PubNub != nil {
		cl.PubNub.Destroy()
		cl.PubNub = nil
	}
	cl.Supabase = nil
	return firstErr
}

func InitSupabase(cfg *config.Config) (*supabase.Client, error) {
	client, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseAnonKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Supabase client: %w", err)
	}
	return client, nil
}

func MongoDBConnect(ctx context.Context, cfg *config.Config) (*mongo.Client, error) {
	fullURI := strings.Replace(cfg.MongoDBURI, "<password>", cfg.MongoDBPassword, 1)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(fullURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return client, nil
}

// NewRedisClient accepts a redis:// URL or a bare host:port.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		opts = &redis.Options{Addr: url}
	}
	opts.PoolSize = 50
	opts.MinIdleConns = 5
	opts.MaxRetries = 3

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func NewPubNub(cfg *config.Config) *pubnub.PubNub {
	pnConfig := pubnub.NewConfigWithUserId(pubnub.UserId(cfg.PubNubUserID))
	pnConfig.PublishKey = cfg.PubNubPublishKey
	pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
	pnConfig.SecretKey = cfg.PubNubSecretKey
	return pubnub.NewPubNub(pnConfig)
}

func CloudinaryCredentials(cfg *config.Config) (*cloudinary.Cloudinary, error) {
	cld, err := cloudinary.NewFromParams(
		cfg.CloudinaryCloudName,
		cfg.CloudinaryAPIKey,
		cfg.CloudinaryAPISecret,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	return cld, nil
}

// Open connects to every backend cfg enables. On error, anything already
// opened is closed.
func Open(ctx context.Context, cfg *config.Config) (*Clients, error) {
	cl := &Clients{}
	fail := func(err error) (*Clients, error) {
		_ = cl.Close(context.Background())
		return nil, err
	}

	if cfg.StoreDriver == config.StoreSupabase {
		supa, err := InitSupabase(cfg)
		if err != nil {
			return fail(err)
		}
		cl.Supabase = supa

		mongoClient, err := MongoDBConnect(ctx, cfg)
		if err != nil {
			return fail(err)
		}
		cl.MongoDB = mongoClient
	}

	if cfg.StoreDriver == config.StoreSqlite {
		db, err := models.NewSqliteRepo(ctx, cfg.SQLitePath)
		if err != nil {
			return fail(err)
		}
		cl.SQLite = db
	}

	if cfg.RedisURL != "" {
		rdb, err := NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return fail(err)
		}
		cl.Redis = rdb
	}

	if cfg.PubNubEnabled() {
		cl.PubNub = NewPubNub(cfg)
	}

	if cfg.CloudinaryEnabled() {
		cld, err := CloudinaryCredentials(cfg)
		if err != nil {
			return fail(err)
		}
		cl.Cloudinary = cld
	}

	return cl, nil
}
