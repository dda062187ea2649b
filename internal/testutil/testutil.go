// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"testing"

	"recipebox/internal/config"
	"recipebox/internal/database"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// NewSQLiteDB opens a migrated in-memory SQLite database that lives for the test.
func NewSQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.Connect(&config.Config{DBDriver: "sqlite", DBPath: ":memory:", Env: "test"})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// NewRedis starts a miniredis server and returns a client bound to it.
func NewRedis(t testing.TB) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb, mr
}

// TestConfig returns a development configuration suitable for wiring services in tests.
func TestConfig() *config.Config {
	return &config.Config{
		JWTSecret:            "test-secret-key-that-is-long-enough-123",
		SessionMaxAge:        3600,
		Port:                 "0",
		DBDriver:             "sqlite",
		DBPath:               ":memory:",
		Env:                  "test",
		ImageMaxUploadSizeMB: 5,
		ImageHosts:           "eda.rambler.ru,img.iamcook.ru,cdn.example.com",
	}
}
