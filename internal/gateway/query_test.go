package gateway_test

import (
	"context"
	"strings"
	"testing"

	"github.com/localnerve/internportal/internal/gateway"
	"github.com/localnerve/internportal/internal/testutil"
	"gorm.io/gorm"
)

func seedTasks(t *testing.T, gw *gateway.Gateway) {
	t.Helper()
	ctx := context.Background()
	rows := []gateway.Fields{
		{"title": "A", "assignedToId": "i1", "status": "To Do", "points": 3, "tags": []string{"docs"}, "deadline": "2026-03-10"},
		{"title": "B", "assignedToId": "i2", "status": "Completed", "points": 8, "tags": []string{"api", "go"}, "deadline": "2026-03-02"},
		{"title": "C", "assignedToId": "i1", "status": "In Progress", "points": 5, "deadline": "2026-03-05"},
		{"title": "D", "assignedToId": "i3", "status": "To Do"},
	}
	for _, r := range rows {
		if _, err := gw.Create(ctx, "tasks", r); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}
}

func titles(docs []gateway.Doc) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Fields["title"].(string))
	}
	return out
}

func sameList(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// TestQueryOperators tests every supported operator
func TestQueryOperators(t *testing.T) {
	ctx := context.Background()
	gw := setupGateway(t)
	seedTasks(t, gw)

	cases := []struct {
		name  string
		conds []gateway.Condition
		want  []string
	}{
		{"eq", []gateway.Condition{gateway.Where("assignedToId", gateway.Eq, "i1")}, []string{"A", "C"}},
		{"not eq skips missing", []gateway.Condition{gateway.Where("points", gateway.NotEq, 3)}, []string{"B", "C"}},
		{"lt", []gateway.Condition{gateway.Where("points", gateway.Lt, 5)}, []string{"A"}},
		{"lte", []gateway.Condition{gateway.Where("points", gateway.Lte, 5)}, []string{"A", "C"}},
		{"gt", []gateway.Condition{gateway.Where("points", gateway.Gt, 5)}, []string{"B"}},
		{"gte string", []gateway.Condition{gateway.Where("deadline", gateway.Gte, "2026-03-05")}, []string{"A", "C"}},
		{"in", []gateway.Condition{gateway.Where("status", gateway.In, []string{"Completed", "In Progress"})}, []string{"B", "C"}},
		{"array contains", []gateway.Condition{gateway.Where("tags", gateway.ArrayContains, "go")}, []string{"B"}},
		{"combined", []gateway.Condition{
			gateway.Where("assignedToId", gateway.Eq, "i1"),
			gateway.Where("status", gateway.Eq, "To Do"),
		}, []string{"A"}},
		{"no match", []gateway.Condition{gateway.Where("assignedToId", gateway.Eq, "nobody")}, []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			docs, err := gw.Query(ctx, "tasks", tc.conds, "")
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if got := titles(docs); !sameList(got, tc.want) {
				t.Errorf("Expected %v, got %v", tc.want, got)
			}
		})
	}
}

// TestQueryOrderBy tests field ordering with missing values last
func TestQueryOrderBy(t *testing.T) {
	ctx := context.Background()
	gw := setupGateway(t)
	seedTasks(t, gw)

	docs, err := gw.Query(ctx, "tasks", nil, "deadline")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if got := titles(docs); !sameList(got, []string{"B", "C", "A", "D"}) {
		t.Errorf("Unexpected deadline order %v", got)
	}

	docs, _ = gw.Query(ctx, "tasks", nil, "createdAt")
	if got := titles(docs); !sameList(got, []string{"A", "B", "C", "D"}) {
		t.Errorf("Unexpected creation order %v", got)
	}
}

// TestQueryNestedField tests dotted paths
func TestQueryNestedField(t *testing.T) {
	ctx := context.Background()
	gw := setupGateway(t)
	gw.Create(ctx, "chats", gateway.Fields{"title": "x", "unread": map[string]any{"admin": 2}})
	gw.Create(ctx, "chats", gateway.Fields{"title": "y", "unread": map[string]any{"admin": 0}})

	docs, err := gw.Query(ctx, "chats", []gateway.Condition{gateway.Where("unread.admin", gateway.Gt, 0)}, "")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if got := titles(docs); !sameList(got, []string{"x"}) {
		t.Errorf("Expected [x], got %v", got)
	}
}

// TestQueryRejectsBadConditions tests operator validation
func TestQueryRejectsBadConditions(t *testing.T) {
	gw := setupGateway(t)
	bad := [][]gateway.Condition{
		{gateway.Where("status", gateway.Op("like"), "x")},
		{gateway.Where("status", gateway.In, "not a list")},
		{gateway.Where("", gateway.Eq, "x")},
	}
	for _, conds := range bad {
		if _, err := gw.Query(context.Background(), "tasks", conds, ""); err == nil {
			t.Errorf("Expected error for %v", conds)
		}
	}
}

// TestQueryTagsStatement tests that gateway selects carry the collection comment
func TestQueryTagsStatement(t *testing.T) {
	db := testutil.OpenDB(t)
	var statements []string
	err := db.Callback().Query().After("gorm:query").Register("test:capture", func(tx *gorm.DB) {
		statements = append(statements, tx.Statement.SQL.String())
	})
	if err != nil {
		t.Fatalf("Failed to register callback: %v", err)
	}

	gw := gateway.New(db)
	if _, err := gw.Query(context.Background(), "tasks", nil, ""); err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(statements) == 0 || !strings.Contains(statements[len(statements)-1], "gateway:tasks") {
		t.Errorf("Expected the collection comment in %v", statements)
	}
}
