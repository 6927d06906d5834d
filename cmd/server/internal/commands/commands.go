package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jwstudio/portal/internal/bootstrap"
	"github.com/jwstudio/portal/internal/store"
	awsstore "github.com/jwstudio/portal/internal/store/aws"
	memorystore "github.com/jwstudio/portal/internal/store/memory"
	postgresstore "github.com/jwstudio/portal/internal/store/postgres"
	redisstore "github.com/jwstudio/portal/internal/store/redis"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type Globals struct {
	Debug   bool
	Version string
}

func configureHTTPServer(addr string, handler http.Handler) *http.Server {
	// Create HTTP server
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      time.Minute,
		IdleTimeout:       5 * time.Minute,
		MaxHeaderBytes:    8 * 1024, // 8KiB
	}
}

// StoreFlags selects and configures the record store. Shared by the server and seed commands.
type StoreFlags struct {
	StoreType     string             `help:"store type (memory, postgres, aws or redis)" default:"memory" env:"PORTAL_STORE_TYPE" enum:"memory,postgres,aws,redis"`
	AWSStore      AWSStoreFlags      `embed:"" prefix:"aws-"`
	PostgresStore PostgresStoreFlags `embed:"" prefix:"postgres-"`
	RedisStore    RedisStoreFlags    `embed:"" prefix:"redis-"`
}

type AWSStoreFlags struct {
	// DynamoDB Configuration
	ProjectsTable     string `help:"DynamoDB table name for projects" env:"PORTAL_AWS_PROJECTS_TABLE"`
	TestimonialsTable string `help:"DynamoDB table name for testimonials" env:"PORTAL_AWS_TESTIMONIALS_TABLE"`
	ContactsTable     string `help:"DynamoDB table name for contact requests" env:"PORTAL_AWS_CONTACTS_TABLE"`

	// SQS Configuration
	ContactQueueURL string `help:"SQS queue URL notified of new contact requests" env:"PORTAL_AWS_CONTACT_QUEUE"`

	// Endpoint overrides for local development
	SQSEndpointURL      string `help:"SQS endpoint URL override (for LocalStack)" default:"" env:"PORTAL_AWS_SQS_ENDPOINT_URL"`
	DynamoDBEndpointURL string `help:"DynamoDB endpoint URL override (for DynamoDB Local)" default:"" env:"PORTAL_AWS_DYNAMODB_ENDPOINT_URL"`
}

func (s *AWSStoreFlags) Validate() error {
	return s.tables().Validate()
}

func (s *AWSStoreFlags) tables() awsstore.Tables {
	return awsstore.Tables{
		Projects:     s.ProjectsTable,
		Testimonials: s.TestimonialsTable,
		Contacts:     s.ContactsTable,
	}
}

type PostgresStoreFlags struct {
	// Connection Configuration
	ConnString string `help:"PostgreSQL connection string" env:"POSTGRES_CONNECTION_STRING"`

	// Connection Pool Configuration
	MaxConns        int32 `help:"maximum number of connections in pool" default:"10"`
	MinConns        int32 `help:"minimum number of connections in pool" default:"2"`
	MaxConnLifetime int32 `help:"maximum connection lifetime in seconds" default:"3600"`
	MaxConnIdleTime int32 `help:"maximum connection idle time in seconds" default:"900"`
	QueryTimeout    int32 `help:"statement timeout in seconds" default:"10"`

	// Migration Configuration
	AutoMigrate bool `help:"run database migrations on startup" default:"false" env:"PORTAL_POSTGRES_AUTO_MIGRATE"`
}

func (s *PostgresStoreFlags) Validate() error {
	if s.ConnString == "" {
		return errors.New("PostgreSQL connection string is required (--postgres-conn-string or POSTGRES_CONNECTION_STRING)")
	}
	return nil
}

type RedisStoreFlags struct {
	Addr     string `help:"Redis address" default:"localhost:6379" env:"PORTAL_REDIS_ADDR"`
	Password string `help:"Redis password" default:"" env:"PORTAL_REDIS_PASSWORD"`
	DB       int    `help:"Redis database number" default:"0" env:"PORTAL_REDIS_DB"`
	Prefix   string `help:"key prefix" default:"portal" env:"PORTAL_REDIS_PREFIX"`
}

// openedStores is the result of opening the selected backend.
type openedStores struct {
	store.Stores
	ping  func(ctx context.Context) error
	close func()
}

// open connects to the configured store backend.
func (f *StoreFlags) open(ctx context.Context) (*openedStores, error) {
	switch f.StoreType {
	case "postgres":
		if err := f.PostgresStore.Validate(); err != nil {
			return nil, fmt.Errorf("failed to validate postgres flags: %w", err)
		}

		db, err := postgresstore.Open(ctx, &postgresstore.Config{
			Pool: postgresstore.PoolConfig{
				ConnString:      f.PostgresStore.ConnString,
				MaxConns:        f.PostgresStore.MaxConns,
				MinConns:        f.PostgresStore.MinConns,
				MaxConnLifetime: f.PostgresStore.MaxConnLifetime,
				MaxConnIdleTime: f.PostgresStore.MaxConnIdleTime,
			},
			AutoMigrate:         f.PostgresStore.AutoMigrate,
			QueryTimeoutSeconds: f.PostgresStore.QueryTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres store: %w", err)
		}
		log.Info().Msg("Using PostgreSQL stores")
		return &openedStores{Stores: db.Stores(), ping: db.Ping, close: db.Close}, nil

	case "aws":
		if err := f.AWSStore.Validate(); err != nil {
			return nil, fmt.Errorf("failed to validate aws flags: %w", err)
		}

		dynamoClient, err := f.AWSStore.dynamoClient(ctx)
		if err != nil {
			return nil, err
		}
		log.Info().Str("projects_table", f.AWSStore.ProjectsTable).Msg("Using DynamoDB stores")
		return &openedStores{Stores: awsstore.NewStores(dynamoClient, f.AWSStore.tables()), close: func() {}}, nil

	case "redis":
		client, err := redisstore.NewClient(ctx, &redis.Options{
			Addr:     f.RedisStore.Addr,
			Password: f.RedisStore.Password,
			DB:       f.RedisStore.DB,
		})
		if err != nil {
			return nil, err
		}
		log.Info().Str("addr", f.RedisStore.Addr).Msg("Using Redis stores")
		return &openedStores{
			Stores: redisstore.NewStores(client, f.RedisStore.Prefix),
			ping:   func(ctx context.Context) error { return client.Ping(ctx).Err() },
			close:  func() { _ = client.Close() },
		}, nil

	default:
		log.Info().Msg("Using in-memory stores")
		return &openedStores{
			Stores: store.Stores{
				Projects:     memorystore.NewProjectStore(),
				Testimonials: memorystore.NewTestimonialStore(),
				Contacts:     memorystore.NewContactStore(),
			},
			close: func() {},
		}, nil
	}
}

func (s *AWSStoreFlags) dynamoClient(ctx context.Context) (*dynamodb.Client, error) {
	awsConfig, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	dynamoClientOpts := []func(*dynamodb.Options){}
	if s.DynamoDBEndpointURL != "" {
		dynamoClientOpts = append(dynamoClientOpts, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(s.DynamoDBEndpointURL)
		})
	}
	return dynamodb.NewFromConfig(awsConfig, dynamoClientOpts...), nil
}

func (s *AWSStoreFlags) sqsClient(ctx context.Context) (*sqs.Client, error) {
	awsConfig, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	sqsClientOpts := []func(*sqs.Options){}
	if s.SQSEndpointURL != "" {
		sqsClientOpts = append(sqsClientOpts, func(o *sqs.Options) {
			o.BaseEndpoint = aws.String(s.SQSEndpointURL)
		})
	}
	return sqs.NewFromConfig(awsConfig, sqsClientOpts...), nil
}

// setupLocalStack creates the development tables and queue and points the AWS flags at them.
func (f *StoreFlags) setupLocalStack(ctx context.Context, clean bool) error {
	localConfig, err := config.LoadDefaultConfig(ctx,
		config.WithRegion("us-east-1"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("test", "test", "test")),
	)
	if err != nil {
		return fmt.Errorf("failed to create local AWS config: %w", err)
	}

	const (
		sqsEndpoint    = "http://localhost:4566"
		dynamoEndpoint = "http://localhost:4566"
	)

	sqsClient := sqs.NewFromConfig(localConfig, func(o *sqs.Options) {
		o.BaseEndpoint = aws.String(sqsEndpoint)
	})
	dynamoClient := dynamodb.NewFromConfig(localConfig, func(o *dynamodb.Options) {
		o.BaseEndpoint = aws.String(dynamoEndpoint)
	})

	resources, err := bootstrap.Bootstrap(ctx, bootstrap.Config{
		SQSClient:      sqsClient,
		DynamoClient:   dynamoClient,
		Environment:    "dev",
		CleanResources: clean,
	})
	if err != nil {
		return fmt.Errorf("failed to bootstrap development infrastructure: %w", err)
	}

	f.StoreType = "aws"
	f.AWSStore.ProjectsTable = resources.TableNames.Projects
	f.AWSStore.TestimonialsTable = resources.TableNames.Testimonials
	f.AWSStore.ContactsTable = resources.TableNames.Contacts
	f.AWSStore.ContactQueueURL = resources.ContactQueueURL
	f.AWSStore.SQSEndpointURL = sqsEndpoint
	f.AWSStore.DynamoDBEndpointURL = dynamoEndpoint

	log.Info().
		Str("projects_table", resources.TableNames.Projects).
		Str("testimonials_table", resources.TableNames.Testimonials).
		Str("contacts_table", resources.TableNames.Contacts).
		Str("contact_queue", resources.ContactQueueURL).
		Msg("Development infrastructure ready")

	return nil
}
