package testutil

import (
	"errors"
	"os"
	"sync"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	vocabdb "github.com/kestrelhealth/vocab-backend/internal/data/db"
	"github.com/kestrelhealth/vocab-backend/internal/platform/logger"
)

var (
	errMissingDSN       = errors.New("missing TEST_POSTGRES_DSN")
	errMissingExtension = errors.New("missing pg_trgm/vector extensions")
)

var (
	dbOnce sync.Once
	db     *gorm.DB
	dbErr  error

	logOnce sync.Once
	logg    *logger.Logger
	logErr  error
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

// DB opens the shared test database once per process. Tests are skipped when
// TEST_POSTGRES_DSN is unset or the server cannot install the pg_trgm and
// vector extensions the search strategies depend on.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dbOnce.Do(func() {
		dsn := os.Getenv("TEST_POSTGRES_DSN")
		if dsn == "" {
			dbErr = errMissingDSN
			return
		}

		var err error
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			DisableForeignKeyConstraintWhenMigrating: true,
			Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
		})
		if err != nil {
			dbErr = err
			return
		}

		if err := vocabdb.EnsureExtensions(db); err != nil {
			dbErr = errors.Join(errMissingExtension, err)
			return
		}

		if err := vocabdb.AutoMigrateAll(db); err != nil {
			dbErr = err
			return
		}

		if err := vocabdb.EnsureSearchIndexes(db); err != nil {
			dbErr = err
			return
		}
	})

	if errors.Is(dbErr, errMissingDSN) {
		tb.Skip("set TEST_POSTGRES_DSN to run repo integration tests")
	}
	if errors.Is(dbErr, errMissingExtension) {
		tb.Skipf("test database lacks pg_trgm/vector extensions: %v", dbErr)
	}
	if dbErr != nil {
		tb.Fatalf("failed to init test db: %v", dbErr)
	}
	return db
}

// Tx begins a transaction that rolls back when the test finishes, so tests
// never leak rows into the shared database.
func Tx(tb testing.TB, db *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := db.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	return tx
}
