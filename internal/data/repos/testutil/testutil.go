package testutil

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/yungbote/cvextract/internal/data/db"
	"github.com/yungbote/cvextract/internal/platform/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var (
	logOnce sync.Once
	logg    *logger.Logger
	logErr  error

	dbSeq atomic.Int64
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

// DB opens a migrated database for one test. TEST_POSTGRES_DSN selects a real
// Postgres; otherwise each call gets a private in-memory sqlite database.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	cfg := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
	}

	var dialector gorm.Dialector
	if dsn := os.Getenv("TEST_POSTGRES_DSN"); dsn != "" {
		dialector = postgres.Open(dsn)
	} else {
		name := fmt.Sprintf("file:cvx_test_%d?mode=memory&cache=shared&_busy_timeout=5000", dbSeq.Add(1))
		dialector = sqlite.Open(name)
	}

	conn, err := gorm.Open(dialector, cfg)
	if err != nil {
		tb.Fatalf("failed to open test db: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		tb.Fatalf("failed to get sql db: %v", err)
	}
	if conn.Dialector.Name() == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
	}
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrateAll(conn); err != nil {
		tb.Fatalf("failed to migrate test db: %v", err)
	}
	return conn
}

// DryRunPostgres returns a Postgres-dialect handle that renders SQL without a
// server. The returned func lists the query statements built so far.
func DryRunPostgres(tb testing.TB) (*gorm.DB, func() []string) {
	tb.Helper()

	conn, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=localhost user=cvx dbname=cvx sslmode=disable"}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		tb.Fatalf("failed to open dry-run db: %v", err)
	}
	if sqlDB, err := conn.DB(); err == nil {
		tb.Cleanup(func() { _ = sqlDB.Close() })
	}

	var (
		mu    sync.Mutex
		stmts []string
	)
	if err := conn.Callback().Query().After("gorm:query").Register("testutil:capture", func(d *gorm.DB) {
		mu.Lock()
		defer mu.Unlock()
		stmts = append(stmts, d.Statement.SQL.String())
	}); err != nil {
		tb.Fatalf("register capture callback: %v", err)
	}
	return conn, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), stmts...)
	}
}

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
