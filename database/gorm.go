package database

import (
	"context"
	"fmt"
	"time"

	"github.com/sahilchouksey/pyq-analyzer/config"
	"github.com/sahilchouksey/pyq-analyzer/model"
	"github.com/sahilchouksey/pyq-analyzer/utils"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage defines the interface that all database implementations must satisfy
type Storage interface {
	// Lifecycle methods
	Init() error
	Close() error
	HealthCheck(ctx context.Context) error

	// GORM DB access
	GetDB() *gorm.DB
}

type GORMStore struct {
	db     *gorm.DB
	logger *utils.Logger
}

// Models lists every table the service owns, in migration order
func Models() []interface{} {
	return []interface{}{
		// Analysis models
		&model.AnalyzedQuestion{},
		&model.QuestionTopic{},
		&model.QuestionResource{},
		&model.QuestionPaper{},
		&model.AnalysisBatch{},

		// Audit & logging models
		&model.CronJobLog{},
	}
}

// StartGORM initializes a GORM connection to PostgreSQL. log may be nil.
func StartGORM(env *config.EnviornmentVariable, log *utils.Logger) (*GORMStore, error) {
	if log == nil {
		log = utils.NewNopLogger()
	}

	// Build DSN (Data Source Name)
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		env.DB_HOST,
		env.DB_USER_NAME,
		env.DB_PASSWORD,
		env.DB_NAME,
		env.DB_PORT,
		env.DB_SSL_MODE,
	)

	// Configure GORM logger
	gormLogger := logger.Default.LogMode(logger.Info)
	if env.IsProduction() {
		gormLogger = logger.Default.LogMode(logger.Error)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: false,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to connect to PostgreSQL: %w", err)
	}

	// Get underlying *sql.DB to configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// Connection pool settings
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Info("connected to PostgreSQL", "host", env.DB_HOST, "database", env.DB_NAME)

	return &GORMStore{db: db, logger: log}, nil
}

// NewGORMStore wraps an already opened connection
func NewGORMStore(db *gorm.DB) *GORMStore {
	return &GORMStore{db: db, logger: utils.NewNopLogger()}
}

// Init runs the AutoMigrate to create/update tables
func (s *GORMStore) Init() error {
	models := Models()
	s.logger.Info("running GORM AutoMigrate", "models", len(models))

	if err := s.db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	s.logger.Info("GORM AutoMigrate completed")
	return nil
}

// Close closes the database connection
func (s *GORMStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetDB returns the GORM DB instance for use in services/handlers
func (s *GORMStore) GetDB() *gorm.DB {
	return s.db
}

// HealthCheck verifies the database connection is alive
func (s *GORMStore) HealthCheck(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
