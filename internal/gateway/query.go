// query.go
//
// An intern management service: role-gated interns, tasks, attendance, reviews and messaging
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of internportal.
// internportal is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// internportal is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with internportal.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package gateway

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/localnerve/internportal/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/hints"
)

// Op is a query comparison operator.
type Op string

// Supported operators
const (
	Eq            Op = "=="
	NotEq         Op = "!="
	Lt            Op = "<"
	Lte           Op = "<="
	Gt            Op = ">"
	Gte           Op = ">="
	In            Op = "in"
	ArrayContains Op = "array-contains"
)

// Condition is one (field, operator, value) filter. Field may be a dotted path
// into nested objects. A document missing the field never matches.
type Condition struct {
	Field string
	Op    Op
	Value any
}

// Where builds a Condition.
func Where(field string, op Op, value any) Condition {
	return Condition{Field: field, Op: op, Value: value}
}

func (c Condition) validate() error {
	if c.Field == "" {
		return fmt.Errorf("condition has no field")
	}
	switch c.Op {
	case Eq, NotEq, Lt, Lte, Gt, Gte, ArrayContains:
		return nil
	case In:
		if _, ok := normalize(c.Value).([]any); !ok {
			return fmt.Errorf("operator in needs a list value for %s", c.Field)
		}
		return nil
	}
	return fmt.Errorf("unsupported operator %q", c.Op)
}

// Query returns the documents of collection matching every condition, ordered
// by orderBy ascending. An empty orderBy means creation order.
func (g *Gateway) Query(ctx context.Context, collection string, conds []Condition, orderBy string) ([]Doc, error) {
	for _, c := range conds {
		if err := c.validate(); err != nil {
			return nil, fmt.Errorf("query %s: %w", collection, err)
		}
	}

	// the comment names the collection in database logs
	q := g.db.WithContext(ctx).
		Clauses(hints.Comment("select", "gateway:"+collection)).
		Where("collection_name = ?", collection)
	q = pushDown(q, conds)
	switch orderBy {
	case KeyUpdatedAt:
		q = q.Order("updated_at").Order("document_id")
	case KeyID:
		q = q.Order("document_id")
	default:
		q = q.Order("created_at").Order("document_id")
	}

	var rows []models.Document
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}

	docs := make([]Doc, 0, len(rows))
	for _, row := range rows {
		d, err := toDoc(row)
		if err != nil {
			return nil, err
		}
		if matchesAll(d, conds) {
			docs = append(docs, d)
		}
	}

	switch orderBy {
	case "", KeyID, KeyCreatedAt, KeyUpdatedAt:
	default:
		sortByField(docs, orderBy)
	}
	return docs, nil
}

// pushDown narrows the SQL scan with string equality on dialects whose JSON
// extraction yields unquoted text. Every condition is still evaluated in Go.
func pushDown(q *gorm.DB, conds []Condition) *gorm.DB {
	switch q.Dialector.Name() {
	case "sqlite", "postgres":
	default:
		return q
	}
	for _, c := range conds {
		if c.Op != Eq || isReserved(c.Field) || strings.ContainsAny(c.Field, ".'\"$[]") {
			continue
		}
		if s, ok := c.Value.(string); ok {
			q = q.Where(datatypes.JSONQuery("fields").Equals(s, c.Field))
		}
	}
	return q
}

func matchesAll(d Doc, conds []Condition) bool {
	for _, c := range conds {
		if !c.matches(d) {
			return false
		}
	}
	return true
}

func (c Condition) matches(d Doc) bool {
	got, ok := lookup(d, c.Field)
	if !ok {
		return false
	}
	want := normalize(c.Value)

	switch c.Op {
	case Eq:
		return equal(got, want)
	case NotEq:
		return !equal(got, want)
	case Lt, Lte, Gt, Gte:
		n, ok := compare(got, want)
		if !ok {
			return false
		}
		switch c.Op {
		case Lt:
			return n < 0
		case Lte:
			return n <= 0
		case Gt:
			return n > 0
		}
		return n >= 0
	case In:
		list, _ := want.([]any)
		return slices.ContainsFunc(list, func(v any) bool { return equal(got, v) })
	case ArrayContains:
		list, ok := got.([]any)
		return ok && slices.ContainsFunc(list, func(v any) bool { return equal(v, want) })
	}
	return false
}

// lookup resolves a field, including the reserved keys and dotted paths.
func lookup(d Doc, field string) (any, bool) {
	switch field {
	case KeyID:
		return d.ID, true
	case KeyCreatedAt:
		return d.CreatedAt, true
	case KeyUpdatedAt:
		return d.UpdatedAt, true
	}

	var cur any = map[string]any(d.Fields)
	for _, part := range strings.Split(field, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = obj[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// normalize maps a caller value onto the shapes produced by JSON decoding.
func normalize(v any) any {
	switch t := v.(type) {
	case nil, string, bool, float64, time.Time:
		return v
	case *time.Time:
		if t == nil {
			return nil
		}
		return *t
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}

func equal(a, b any) bool {
	if n, ok := compare(a, b); ok {
		return n == 0
	}
	return reflect.DeepEqual(a, b)
}

// compare orders two values of the same kind. Stored timestamps compare
// against time.Time or RFC 3339 strings.
func compare(a, b any) (int, bool) {
	switch x := a.(type) {
	case float64:
		if y, ok := b.(float64); ok {
			return cmp.Compare(x, y), true
		}
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y), true
		}
		if y, ok := b.(time.Time); ok {
			if t, err := time.Parse(time.RFC3339Nano, x); err == nil {
				return t.Compare(y), true
			}
		}
	case time.Time:
		switch y := b.(type) {
		case time.Time:
			return x.Compare(y), true
		case string:
			if t, err := time.Parse(time.RFC3339Nano, y); err == nil {
				return x.Compare(t), true
			}
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0, true
			case !x:
				return -1, true
			}
			return 1, true
		}
	}
	return 0, false
}

// sortByField orders documents by a field, stable, missing values last.
func sortByField(docs []Doc, field string) {
	slices.SortStableFunc(docs, func(a, b Doc) int {
		av, aok := lookup(a, field)
		bv, bok := lookup(b, field)
		switch {
		case !aok && !bok:
			return 0
		case !aok:
			return 1
		case !bok:
			return -1
		}
		n, _ := compare(av, bv)
		return n
	})
}
