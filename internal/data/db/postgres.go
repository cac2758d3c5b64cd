package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/kestrelhealth/vocab-backend/internal/platform/envutil"
	"github.com/kestrelhealth/vocab-backend/internal/platform/logger"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	host := envutil.Str("POSTGRES_HOST", "localhost")
	port := envutil.Str("POSTGRES_PORT", "5432")
	user := envutil.Str("POSTGRES_USER", "postgres")
	password := envutil.Str("POSTGRES_PASSWORD", "")
	name := envutil.Str("POSTGRES_NAME", "vocab")
	sslMode := envutil.Str("POSTGRES_SSLMODE", "disable")

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, password, host, port, name, sslMode)

	serviceLog.Info("Connecting to Postgres...", "host", host, "port", port, "db", name)
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	return &PostgresService{db: gdb, log: serviceLog}, nil
}

// EnsureSchema prepares the pieces this service owns: the pg_trgm and vector
// extensions, the concept_embedding table, and the search indexes. The CDM
// vocabulary tables themselves are loaded by the external vocabulary import
// and are never migrated from the request path.
func (s *PostgresService) EnsureSchema() error {
	if err := EnsureExtensions(s.db); err != nil {
		s.log.Error("Failed to enable extensions", "error", err)
		return err
	}
	s.log.Info("pg_trgm and vector extensions enabled")

	if err := s.db.AutoMigrate(&embeddingTable); err != nil {
		s.log.Error("Auto migration failed for concept_embedding", "error", err)
		return fmt.Errorf("migrate concept_embedding: %w", err)
	}

	if err := EnsureSearchIndexes(s.db); err != nil {
		s.log.Error("Failed to ensure search indexes", "error", err)
		return err
	}
	s.log.Info("Search indexes ensured")
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}

func (s *PostgresService) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
