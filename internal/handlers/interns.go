// interns.go
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

package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/internportal/internal/models"
	"github.com/localnerve/internportal/internal/types"
	"github.com/localnerve/internportal/internal/utils"
)

// CreateInternRequest is the body of POST /api/interns. Skills accepts a
// list or a comma-separated string.
type CreateInternRequest struct {
	Name   string                 `json:"name" validate:"required"`
	Email  string                 `json:"email" validate:"required,email"`
	Phone  string                 `json:"phone"`
	Skills types.FlexList[string] `json:"skills" swaggertype:"array,string"`
	Role   string                 `json:"role"`
}

var internPatchFields = []string{"name", "email", "phone", "skills", "role", "joinDate", "status"}

// refreshIfAsked reloads the session cache when ?fresh=true is given
func refreshIfAsked(c *fiber.Ctx) error {
	if !c.QueryBool("fresh") {
		return nil
	}
	sess, err := session(c)
	if err != nil {
		return err
	}
	return sess.Store.Refresh(c.UserContext())
}

// ListInterns handles GET /api/interns
// @Summary List interns
// @Tags Interns
// @Produce json
// @Param fresh query bool false "Reload the session cache first"
// @Success 200 {array} models.Intern
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /interns [get]
func (h *API) ListInterns(c *fiber.Ctx) error {
	if err := refreshIfAsked(c); err != nil {
		return err
	}
	sess, err := session(c)
	if err != nil {
		return err
	}
	return c.JSON(sess.Store.Interns())
}

// LookupIntern handles GET /api/interns/lookup?email=
// @Summary Find an intern by email
// @Description Case and whitespace insensitive email lookup
// @Tags Interns
// @Produce json
// @Param email query string true "Email"
// @Success 200 {object} models.Intern
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /interns/lookup [get]
func (h *API) LookupIntern(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	email := c.Query("email")
	if email == "" {
		return types.Invalid("email query parameter is required")
	}
	intern, ok := sess.Store.GetInternByEmail(email)
	if !ok {
		return utils.NotFoundResponse(c, "No intern with email '"+email+"'")
	}
	return c.JSON(intern)
}

// CreateIntern handles POST /api/interns
// @Summary Add an intern
// @Description Creates the intern and a login with the default password. The intern starts Active, joined today.
// @Tags Interns
// @Accept json
// @Produce json
// @Param body body CreateInternRequest true "Intern"
// @Success 201 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /interns [post]
func (h *API) CreateIntern(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	var req CreateInternRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	id, err := sess.Store.AddIntern(c.UserContext(), models.Intern{
		Name:   req.Name,
		Email:  req.Email,
		Phone:  req.Phone,
		Skills: req.Skills,
		Role:   req.Role,
	})
	if err != nil {
		return err
	}
	return utils.MutationSuccessResponse(c, fiber.StatusCreated, id, "Intern added successfully!")
}

// UpdateIntern handles PATCH /api/interns/:id
// @Summary Update an intern
// @Tags Interns
// @Accept json
// @Produce json
// @Param id path string true "Intern ID"
// @Param body body map[string]interface{} true "Fields to merge"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /interns/{id} [patch]
func (h *API) UpdateIntern(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	fields, err := parsePatch(c, internPatchFields...)
	if err != nil {
		return err
	}
	id := c.Params("id")
	if err := sess.Store.UpdateIntern(c.UserContext(), id, fields); err != nil {
		return err
	}
	return utils.MutationSuccessResponse(c, fiber.StatusOK, id, "Intern updated successfully!")
}

// DeleteIntern handles DELETE /api/interns/:id
// @Summary Delete an intern
// @Description Removes the intern record only. Related records and the login are kept.
// @Tags Interns
// @Produce json
// @Param id path string true "Intern ID"
// @Success 200 {object} utils.SuccessResponseStruct
// @Security BearerAuth
// @Router /interns/{id} [delete]
func (h *API) DeleteIntern(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	id := c.Params("id")
	if err := sess.Store.DeleteIntern(c.UserContext(), id); err != nil {
		return err
	}
	return utils.MutationSuccessResponse(c, fiber.StatusOK, id, "Intern deleted successfully!")
}
