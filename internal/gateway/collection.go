// collection.go
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
	"context"
	"encoding/json"
	"fmt"
)

// Collection is a typed view of one collection. T is decoded from the
// flattened document, so its id and timestamp fields are filled on read and
// ignored on write.
type Collection[T any] struct {
	gw   *Gateway
	name string
}

// NewCollection binds a typed view to a collection name.
func NewCollection[T any](gw *Gateway, name string) *Collection[T] {
	return &Collection[T]{gw: gw, name: name}
}

// Name returns the collection name.
func (c *Collection[T]) Name() string {
	return c.name
}

// Create adds v with a generated id.
func (c *Collection[T]) Create(ctx context.Context, v T) (string, error) {
	fields, err := ToFields(v)
	if err != nil {
		return "", err
	}
	return c.gw.Create(ctx, c.name, fields)
}

// Set writes v under id, replacing or merging.
func (c *Collection[T]) Set(ctx context.Context, id string, v T, merge bool) error {
	fields, err := ToFields(v)
	if err != nil {
		return err
	}
	return c.gw.Set(ctx, c.name, id, fields, merge)
}

// Get reads one document.
func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	var out T
	doc, err := c.gw.Get(ctx, c.name, id)
	if err != nil {
		return out, err
	}
	if err := doc.Decode(&out); err != nil {
		return out, fmt.Errorf("decode %s/%s: %w", c.name, id, err)
	}
	return out, nil
}

// All reads the whole collection in creation order.
func (c *Collection[T]) All(ctx context.Context) ([]T, error) {
	docs, err := c.gw.All(ctx, c.name)
	if err != nil {
		return nil, err
	}
	return decodeAll[T](c.name, docs)
}

// Update merges fields into an existing document.
func (c *Collection[T]) Update(ctx context.Context, id string, fields Fields) error {
	return c.gw.Update(ctx, c.name, id, fields)
}

// Delete removes a document.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	return c.gw.Delete(ctx, c.name, id)
}

// Query filters and orders the collection.
func (c *Collection[T]) Query(ctx context.Context, conds []Condition, orderBy string) ([]T, error) {
	docs, err := c.gw.Query(ctx, c.name, conds, orderBy)
	if err != nil {
		return nil, err
	}
	return decodeAll[T](c.name, docs)
}

// Subscribe is the typed form of Gateway.Subscribe. Documents that fail to
// decode are reported as an empty delivery rather than dropped silently.
func (c *Collection[T]) Subscribe(conds []Condition, fn func([]T, error)) (unsubscribe func()) {
	return c.gw.Subscribe(c.name, conds, func(docs []Doc) {
		items, err := decodeAll[T](c.name, docs)
		fn(items, err)
	})
}

func decodeAll[T any](name string, docs []Doc) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		var v T
		if err := d.Decode(&v); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", name, d.ID, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// ToFields converts a struct or map into document fields.
func ToFields(v any) (Fields, error) {
	if f, ok := v.(Fields); ok {
		return f, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var fields Fields
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("document must be a JSON object: %w", err)
	}
	for k := range fields {
		if isReserved(k) {
			delete(fields, k)
		}
	}
	return fields, nil
}
