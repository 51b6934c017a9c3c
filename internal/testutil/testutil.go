// Package testutil provides PostgreSQL-backed fixtures for package tests.
//
// A package opts in with
//
//	func TestMain(m *testing.M) { os.Exit(testutil.RunWithDatabase(m)) }
//
// which starts one embedded PostgreSQL for the package run, or reuses an
// external server when TEST_DB_HOST is set. Each SetupTestDB call gets its
// own schema, dropped on cleanup.
package testutil

import (
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"

	"github.com/xelth-com/eckassets/internal/database"
)

const TestSchema = "test_assets"

var (
	baseDSN     string
	startErr    error
	schemaCount atomic.Int64
)

// RunWithDatabase runs the package tests with a database available.
// When no database can be started the DB-backed tests skip themselves.
func RunWithDatabase(m *testing.M) int {
	stop, err := startDatabase()
	if err != nil {
		startErr = err
		fmt.Fprintf(os.Stderr, "testutil: database unavailable, skipping DB tests: %v\n", err)
	}
	code := m.Run()
	if stop != nil {
		stop()
	}
	return code
}

func startDatabase() (func(), error) {
	if host := os.Getenv("TEST_DB_HOST"); host != "" {
		baseDSN = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			host,
			getEnv("TEST_DB_PORT", "5432"),
			getEnv("TEST_DB_USER", "postgres"),
			getEnv("TEST_DB_PASSWORD", "postgres"),
			getEnv("TEST_DB_NAME", "eckassets_test"),
		)
		return nil, nil
	}

	port, err := freePort()
	if err != nil {
		return nil, err
	}
	dir, err := os.MkdirTemp("", "eckassets-pg-")
	if err != nil {
		return nil, err
	}

	pg := embeddedpostgres.NewDatabase(embeddedpostgres.DefaultConfig().
		Port(uint32(port)).
		DataPath(filepath.Join(dir, "data")).
		RuntimePath(filepath.Join(dir, "runtime")).
		Database("eckassets_test").
		Username("postgres").
		Password("postgres").
		StartTimeout(90 * time.Second).
		Logger(io.Discard))

	if err := pg.Start(); err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("start embedded postgres: %w", err)
	}

	baseDSN = fmt.Sprintf("host=127.0.0.1 port=%d user=postgres password=postgres dbname=eckassets_test sslmode=disable", port)
	return func() {
		_ = pg.Stop()
		os.RemoveAll(dir)
	}, nil
}

// SetupTestDB returns a migrated connection bound to a fresh schema.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	if baseDSN == "" {
		t.Skipf("database not available: %v", startErr)
	}

	schemaName := fmt.Sprintf("%s_%d_%d", TestSchema, os.Getpid(), schemaCount.Add(1))

	setupDB, err := database.Open(baseDSN, true)
	if err != nil {
		t.Fatalf("Failed to connect to database for schema setup: %v", err)
	}
	if err := setupDB.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schemaName)).Error; err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	closeDB(setupDB)

	// search_path in the DSN so every pooled connection uses the test schema
	db, err := database.Open(fmt.Sprintf("%s search_path=%s", baseDSN, schemaName), true)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test schema: %v", err)
	}

	t.Cleanup(func() {
		closeDB(db)
		cleanDB, err := database.Open(baseDSN, true)
		if err != nil {
			return
		}
		cleanDB.Exec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schemaName))
		closeDB(cleanDB)
	})

	return db
}

// ObservedLogger returns a logger whose entries can be inspected.
func ObservedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return zap.New(core), logs
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

func freePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
