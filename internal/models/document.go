// document.go
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

package models

import (
	"time"
)

// Document is one keyed record of a named collection. The domain payload is
// kept as a JSON object in Fields; timestamps are stamped by the gateway.
type Document struct {
	CollectionName string `gorm:"primaryKey;size:64;not null"`
	DocumentID     string `gorm:"primaryKey;size:64;not null"`
	Fields         JSON
	CreatedAt      time.Time `gorm:"index"`
	UpdatedAt      time.Time
}

// TableName overrides the table name for Document
func (Document) TableName() string {
	return "documents"
}

// Account is a login identity held by the built-in identity provider.
type Account struct {
	UID          string `gorm:"primaryKey;size:36"`
	Email        string `gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName overrides the table name for Account
func (Account) TableName() string {
	return "accounts"
}
