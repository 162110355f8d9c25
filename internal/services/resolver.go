// resolver.go
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

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/localnerve/internportal/internal/identity"
	"github.com/localnerve/internportal/internal/models"
)

// ErrInternNotFound is returned when a signed in identity matches no intern.
var ErrInternNotFound = errors.New("no intern record for this login")

// InternLister fetches every intern.
type InternLister interface {
	All(ctx context.Context) ([]models.Intern, error)
}

// Resolver maps a login identity to an application user with a role.
type Resolver struct {
	interns    InternLister
	adminEmail string
	adminName  string
}

// NewResolver creates a Resolver. The administrator is recognised by email alone.
func NewResolver(interns InternLister, adminEmail, adminName string) *Resolver {
	return &Resolver{
		interns:    interns,
		adminEmail: identity.NormalizeEmail(adminEmail),
		adminName:  adminName,
	}
}

// AdminName returns the configured administrator display name.
func (r *Resolver) AdminName() string {
	return r.adminName
}

// Resolve returns the administrator without any lookup, otherwise the
// intern whose uid matches. It reads the intern collection on every call.
func (r *Resolver) Resolve(ctx context.Context, id *identity.Identity) (*models.AppUser, error) {
	if id == nil {
		return nil, identity.ErrNotSignedIn
	}
	if identity.NormalizeEmail(id.Email) == r.adminEmail {
		return &models.AppUser{
			ID:    models.AdminID,
			Email: id.Email,
			Name:  r.adminName,
			Role:  models.RoleAdmin,
			UID:   id.UID,
		}, nil
	}

	interns, err := r.interns.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", id.UID, err)
	}
	for _, in := range interns {
		if in.UID == id.UID {
			return &models.AppUser{
				ID:    in.ID,
				Email: in.Email,
				Name:  in.Name,
				Role:  models.RoleIntern,
				UID:   id.UID,
			}, nil
		}
	}
	return nil, ErrInternNotFound
}
