package database

import (
	"context"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gocql/gocql"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pizzeria_back_end/internal/config"
	"pizzeria_back_end/internal/models"
)

// Connections holds every backing client. Optional backends are nil when
// they are not configured.
type Connections struct {
	DB      *gorm.DB
	Redis   *redis.Client
	Scylla  *gocql.Session
	Elastic *elasticsearch.Client
	MinIO   *minio.Client
}

// ConnectAll opens Postgres and Redis, which are required, and whichever
// optional backends are configured.
func ConnectAll(ctx context.Context, cfg config.Config) (*Connections, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	conns := &Connections{}
	var err error

	if conns.DB, err = ConnectPostgres(cfg.Database, cfg.Environment); err != nil {
		return nil, err
	}
	if conns.Redis, err = ConnectRedis(ctx, cfg.Redis); err != nil {
		conns.Close()
		return nil, err
	}

	if len(cfg.Scylla.Hosts) > 0 {
		if conns.Scylla, err = ConnectScylla(cfg.Scylla); err != nil {
			log.Warn().Err(err).Msg("Failed to connect to Scylla, continuing without audit trail")
		}
	}
	if cfg.Elastic.URL != "" {
		if conns.Elastic, err = ConnectElastic(cfg.Elastic); err != nil {
			log.Warn().Err(err).Msg("Failed to connect to Elasticsearch, continuing without menu search")
		}
	}
	if cfg.MinIO.Endpoint != "" {
		if conns.MinIO, err = ConnectMinIO(ctx, cfg.MinIO); err != nil {
			log.Warn().Err(err).Msg("Failed to connect to MinIO, continuing without image uploads")
		}
	}

	log.Info().Msg("Database connections established")
	return conns, nil
}

func (c *Connections) Close() {
	if c.DB != nil {
		if sqlDB, err := c.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}
	if c.Redis != nil {
		c.Redis.Close()
	}
	if c.Scylla != nil {
		c.Scylla.Close()
	}
}

func ConnectPostgres(cfg config.DatabaseConfig, environment string) (*gorm.DB, error) {
	level := logger.Warn
	if environment == "development" {
		level = logger.Info
	}
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get DB instance")
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	log.Info().Msg("Connected to Postgres")
	return db, nil
}

// AutoMigrate creates or updates every relational table.
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Customer{},
		&models.Staff{},
		&models.Address{},
		&models.Category{},
		&models.Item{},
		&models.ItemCategory{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
	)
	return errors.Wrap(err, "failed to migrate schema")
}

func ConnectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Host,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrap(err, "failed to connect to Redis")
	}
	log.Info().Str("addr", cfg.Host).Msg("Connected to Redis")
	return client, nil
}

func scyllaCluster(cfg config.ScyllaConfig) *gocql.ClusterConfig {
	cluster := gocql.NewCluster(cfg.Hosts...)
	cluster.Consistency = gocql.Quorum
	cluster.Timeout = cfg.Timeout
	cluster.NumConns = 4
	cluster.ReconnectInterval = time.Second
	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())
	if cfg.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.Username,
			Password: cfg.Password,
		}
	}
	return cluster
}

func ConnectScylla(cfg config.ScyllaConfig) (*gocql.Session, error) {
	cluster := scyllaCluster(cfg)
	cluster.Keyspace = cfg.Keyspace
	session, err := cluster.CreateSession()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create Scylla session for keyspace %s", cfg.Keyspace)
	}
	log.Info().Str("keyspace", cfg.Keyspace).Msg("Connected to Scylla")
	return session, nil
}

func ConnectElastic(cfg config.ElasticConfig) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Elasticsearch client")
	}
	res, err := client.Info()
	if err != nil {
		return nil, errors.Wrap(err, "failed to reach Elasticsearch")
	}
	res.Body.Close()
	log.Info().Str("url", cfg.URL).Msg("Connected to Elasticsearch")
	return client, nil
}

// ConnectMinIO connects and makes sure the image bucket exists.
func ConnectMinIO(ctx context.Context, cfg config.MinIOConfig) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create MinIO client")
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check MinIO bucket")
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, errors.Wrap(err, "failed to create MinIO bucket")
		}
		log.Info().Str("bucket", cfg.Bucket).Msg("Created MinIO bucket")
	}

	log.Info().Str("endpoint", cfg.Endpoint).Msg("Connected to MinIO")
	return client, nil
}
