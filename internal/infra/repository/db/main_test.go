package db

import (
	"context"
	"os"
	"testing"

	"gorm.io/gorm"
)

// 整合測試需要本機 postgres，連不到時略過
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := GetDbConn(
		getEnv("TEST_POSTGRES_DB", "bongland_test"),
		getEnv("TEST_POSTGRES_HOST", "localhost"),
		getEnv("TEST_POSTGRES_PORT", "5432"),
		getEnv("TEST_POSTGRES_USER", "royce"),
		getEnv("TEST_POSTGRES_PASSWORD", "password"),
	)
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil || sqlDB.Ping() != nil {
		t.Skip("postgres not available")
	}
	if err := NewDbDao(conn).InitMigrate(); err != nil {
		t.Fatalf("init migrate failed: %v", err)
	}
	return conn
}

func cleanTables(conn *gorm.DB) {
	_ = NewDbDao(conn).ResetOrderData(context.Background())
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
