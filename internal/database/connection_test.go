package database

import (
	"strings"
	"testing"

	"github.com/localnerve/internportal/internal/config"
	"github.com/localnerve/internportal/internal/models"
)

// TestDialectorSelection tests the dialector chosen per DB_TYPE
func TestDialectorSelection(t *testing.T) {
	cases := map[string]string{
		"mysql":     "mysql",
		"mariadb":   "mysql",
		"postgres":  "postgres",
		"sqlite":    "sqlite",
		"sqlite3":   "sqlite",
		"sqlserver": "sqlserver",
	}
	for dbType, want := range cases {
		cfg := config.Default()
		cfg.DBType = dbType
		cfg.DBUser = "portal"
		d, err := Dialector(cfg)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", dbType, err)
		}
		if d.Name() != want {
			t.Errorf("%s: expected dialector %s, got %s", dbType, want, d.Name())
		}
	}

	cfg := config.Default()
	cfg.DBType = "oracle"
	if _, err := Dialector(cfg); err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("Expected unsupported database error, got %v", err)
	}
}

// TestConnectSQLiteMemory tests connect, migrate and close on in-memory SQLite
func TestConnectSQLiteMemory(t *testing.T) {
	cfg := config.Default()
	cfg.DBDatabase = ":memory:"

	db, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate failed: %v", err)
	}
	if !db.Migrator().HasTable(&models.Document{}) || !db.Migrator().HasTable(&models.Account{}) {
		t.Error("Expected documents and accounts tables")
	}

	sqlDB, _ := db.DB()
	if got := sqlDB.Stats().MaxOpenConnections; got != 1 {
		t.Errorf("Expected a single sqlite connection, got %d", got)
	}

	if err := Close(db); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}
