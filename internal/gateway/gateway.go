// gateway.go
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
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"
	"github.com/localnerve/internportal/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// Fields is the payload of a document.
type Fields map[string]any

// Reserved keys are stamped by the gateway and never stored in Fields.
const (
	KeyID        = "id"
	KeyCreatedAt = "createdAt"
	KeyUpdatedAt = "updatedAt"
)

// Doc is a document read back from the store.
type Doc struct {
	ID        string
	Fields    Fields
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Flatten returns the fields with id and timestamps merged in.
func (d Doc) Flatten() Fields {
	out := make(Fields, len(d.Fields)+3)
	maps.Copy(out, d.Fields)
	out[KeyID] = d.ID
	out[KeyCreatedAt] = d.CreatedAt
	out[KeyUpdatedAt] = d.UpdatedAt
	return out
}

// Decode unmarshals the flattened document into v.
func (d Doc) Decode(v any) error {
	raw, err := json.Marshal(d.Flatten())
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// Gateway is the generic document store over a single GORM table.
type Gateway struct {
	db    *gorm.DB
	now   func() time.Time
	newID func() string
	hub   *hub
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithClock replaces the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

// WithIDs replaces the document id generator.
func WithIDs(newID func() string) Option {
	return func(g *Gateway) { g.newID = newID }
}

// New creates a Gateway over db. The documents table must already be migrated.
func New(db *gorm.DB, opts ...Option) *Gateway {
	g := &Gateway{
		db:    db,
		now:   func() time.Time { return time.Now().UTC() },
		newID: newID,
		hub:   newHub(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Create adds a document with a generated id.
func (g *Gateway) Create(ctx context.Context, collection string, fields Fields) (string, error) {
	id := g.newID()
	if err := g.insert(g.db.WithContext(ctx), collection, id, fields); err != nil {
		return "", fmt.Errorf("create %s: %w", collection, err)
	}
	g.hub.publish(collection)
	return id, nil
}

// Set writes a document under a caller-chosen id. Without merge the document
// is replaced and createdAt restamped; with merge the fields are merged
// shallowly into an existing document. A missing document is created either way.
func (g *Gateway) Set(ctx context.Context, collection, id string, fields Fields, merge bool) error {
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := g.lock(tx, collection, id)
		if errors.Is(err, ErrNotFound) {
			return g.insert(tx, collection, id, fields)
		}
		if err != nil {
			return err
		}

		if merge {
			return g.rewrite(tx, collection, id, mergeFields(current.Fields, fields), false)
		}
		return g.rewrite(tx, collection, id, fields, true)
	})
	if err != nil {
		return fmt.Errorf("set %s/%s: %w", collection, id, err)
	}
	g.hub.publish(collection)
	return nil
}

// Get reads one document.
func (g *Gateway) Get(ctx context.Context, collection, id string) (Doc, error) {
	var row models.Document
	err := g.db.WithContext(ctx).
		Where("collection_name = ? AND document_id = ?", collection, id).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Doc{}, ErrNotFound
	}
	if err != nil {
		return Doc{}, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return toDoc(row)
}

// All reads every document of a collection in creation order.
func (g *Gateway) All(ctx context.Context, collection string) ([]Doc, error) {
	return g.Query(ctx, collection, nil, "")
}

// Update merges fields shallowly into an existing document and restamps updatedAt.
func (g *Gateway) Update(ctx context.Context, collection, id string, fields Fields) error {
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := g.lock(tx, collection, id)
		if err != nil {
			return err
		}
		return g.rewrite(tx, collection, id, mergeFields(current.Fields, fields), false)
	})
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	g.hub.publish(collection)
	return nil
}

// Delete removes a document. Deleting a missing document is not an error,
// and nothing that references the document is touched.
func (g *Gateway) Delete(ctx context.Context, collection, id string) error {
	err := g.db.WithContext(ctx).
		Where("collection_name = ? AND document_id = ?", collection, id).
		Delete(&models.Document{}).Error
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	g.hub.publish(collection)
	return nil
}

// Ping checks the underlying connection.
func (g *Gateway) Ping(ctx context.Context) error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (g *Gateway) insert(tx *gorm.DB, collection, id string, fields Fields) error {
	data, err := encode(fields)
	if err != nil {
		return err
	}
	now := g.now()
	return tx.Create(&models.Document{
		CollectionName: collection,
		DocumentID:     id,
		Fields:         data,
		CreatedAt:      now,
		UpdatedAt:      now,
	}).Error
}

func (g *Gateway) rewrite(tx *gorm.DB, collection, id string, fields Fields, restamp bool) error {
	data, err := encode(fields)
	if err != nil {
		return err
	}
	now := g.now()
	columns := map[string]any{"fields": data, "updated_at": now}
	if restamp {
		columns["created_at"] = now
	}
	return tx.Model(&models.Document{}).
		Where("collection_name = ? AND document_id = ?", collection, id).
		Updates(columns).Error
}

// lock reads a document for update inside a transaction.
func (g *Gateway) lock(tx *gorm.DB, collection, id string) (Doc, error) {
	q := tx
	switch tx.Dialector.Name() {
	case "mysql", "postgres":
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row models.Document
	err := q.Where("collection_name = ? AND document_id = ?", collection, id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Doc{}, ErrNotFound
	}
	if err != nil {
		return Doc{}, err
	}
	return toDoc(row)
}

func toDoc(row models.Document) (Doc, error) {
	fields, err := row.Fields.Object()
	if err != nil {
		return Doc{}, fmt.Errorf("decode %s/%s: %w", row.CollectionName, row.DocumentID, err)
	}
	return Doc{
		ID:        row.DocumentID,
		Fields:    fields,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

// encode strips the reserved keys and serializes the rest.
func encode(fields Fields) (models.JSON, error) {
	clean := make(Fields, len(fields))
	for k, v := range fields {
		if isReserved(k) {
			continue
		}
		clean[k] = v
	}
	return models.NewJSON(clean)
}

func mergeFields(base, patch Fields) Fields {
	out := make(Fields, len(base)+len(patch))
	maps.Copy(out, base)
	maps.Copy(out, patch)
	return out
}

func isReserved(key string) bool {
	return key == KeyID || key == KeyCreatedAt || key == KeyUpdatedAt
}
