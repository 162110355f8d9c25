//go:build integration

package gateway_test

import (
	"context"
	"testing"

	"github.com/localnerve/internportal/internal/config"
	"github.com/localnerve/internportal/internal/database"
	"github.com/localnerve/internportal/internal/devdb"
	"github.com/localnerve/internportal/internal/gateway"
)

// TestMariaDBQuery tests filtering and ordering against a real MariaDB JSON column
func TestMariaDBQuery(t *testing.T) {
	ctx := context.Background()
	c, err := devdb.Start(ctx, devdb.Options{DBType: "mariadb"})
	if err != nil {
		t.Fatalf("Failed to start MariaDB: %v", err)
	}
	defer c.Terminate(context.Background())

	db, err := database.Connect(c.Config(config.Default()))
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer database.Close(db)
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate failed: %v", err)
	}

	gw := gateway.New(db)
	for _, f := range []gateway.Fields{
		{"chatId": "c1", "content": "one", "tags": []any{"a"}},
		{"chatId": "c2", "content": "two", "tags": []any{"b"}},
		{"chatId": "c1", "content": "three", "tags": []any{"a", "b"}},
	} {
		if _, err := gw.Create(ctx, gateway.CollectionMessages, f); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	docs, err := gw.Query(ctx, gateway.CollectionMessages, []gateway.Condition{gateway.Where("chatId", gateway.Eq, "c1")}, gateway.KeyCreatedAt)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(docs) != 2 || docs[0].Fields["content"] != "one" || docs[1].Fields["content"] != "three" {
		t.Errorf("Unexpected chat c1 messages %+v", docs)
	}

	docs, err = gw.Query(ctx, gateway.CollectionMessages, []gateway.Condition{gateway.Where("tags", gateway.ArrayContains, "b")}, "")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(docs) != 2 {
		t.Errorf("Expected 2 documents tagged b, got %d", len(docs))
	}
}
