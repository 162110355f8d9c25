//go:build integration

package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/localnerve/internportal/internal/config"
	"github.com/localnerve/internportal/internal/database"
	"github.com/localnerve/internportal/internal/devdb"
	"github.com/localnerve/internportal/internal/models"
)

// startMariaDB runs a throwaway MariaDB and returns a config pointing at it
func startMariaDB(t *testing.T) *config.Config {
	t.Helper()
	ctx := context.Background()
	c, err := devdb.Start(ctx, devdb.Options{DBType: "mariadb"})
	if err != nil {
		t.Fatalf("Failed to start MariaDB: %v", err)
	}
	t.Cleanup(func() {
		if err := c.Terminate(context.Background()); err != nil {
			t.Logf("Failed to terminate MariaDB: %v", err)
		}
	})
	return c.Config(config.Default())
}

// TestMariaDBMigrateAndJSON tests migrations and JSON column round trips on MariaDB
func TestMariaDBMigrateAndJSON(t *testing.T) {
	cfg := startMariaDB(t)

	db, err := database.Connect(cfg)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate failed: %v", err)
	}

	fields, _ := models.NewJSON(map[string]any{"name": "Ann Lee", "skills": []string{"Go"}})
	now := time.Now().UTC().Truncate(time.Second)
	doc := models.Document{CollectionName: "interns", DocumentID: "i1", Fields: fields, CreatedAt: now, UpdatedAt: now}
	if err := db.Create(&doc).Error; err != nil {
		t.Fatalf("Failed to create document: %v", err)
	}

	var got models.Document
	if err := db.Where("collection_name = ? AND document_id = ?", "interns", "i1").First(&got).Error; err != nil {
		t.Fatalf("Failed to read document: %v", err)
	}
	obj, err := got.Fields.Object()
	if err != nil {
		t.Fatalf("Failed to decode fields: %v", err)
	}
	if obj["name"] != "Ann Lee" {
		t.Errorf("Expected name to round trip, got %v", obj["name"])
	}
}
