// performances.go
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

// CreatePerformanceRequest is the body of POST /api/performances
type CreatePerformanceRequest struct {
	InternID       string           `json:"internId" validate:"required"`
	Rating         float64          `json:"rating" validate:"gte=0,lte=5"`
	TasksCompleted types.FlexUint64 `json:"tasksCompleted" swaggertype:"integer"`
	LastReview     string           `json:"lastReview" validate:"omitempty,datetime=2006-01-02"`
	Feedback       string           `json:"feedback"`
}

var performancePatchFields = []string{"internId", "rating", "tasksCompleted", "lastReview", "feedback"}

// ListPerformances handles GET /api/performances
// @Summary List performance reviews
// @Description Administrators see every review, optionally filtered by intern. Interns see their own.
// @Tags Performance
// @Produce json
// @Param internId query string false "Intern ID (admin only)"
// @Param fresh query bool false "Reload the session cache first"
// @Success 200 {array} models.Performance
// @Security BearerAuth
// @Router /performances [get]
func (h *API) ListPerformances(c *fiber.Ctx) error {
	if err := refreshIfAsked(c); err != nil {
		return err
	}
	sess, err := session(c)
	if err != nil {
		return err
	}
	switch internID := c.Query("internId"); {
	case !sess.User.IsAdmin():
		return c.JSON(sess.Store.PerformancesFor(sess.User.ID))
	case internID != "":
		return c.JSON(sess.Store.PerformancesFor(internID))
	}
	return c.JSON(sess.Store.Performances())
}

// CreatePerformance handles POST /api/performances
// @Summary Add a performance review
// @Tags Performance
// @Accept json
// @Produce json
// @Param body body CreatePerformanceRequest true "Review"
// @Success 201 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /performances [post]
func (h *API) CreatePerformance(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	var req CreatePerformanceRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	id, err := sess.Store.AddPerformanceReview(c.UserContext(), models.Performance{
		InternID:       req.InternID,
		Rating:         req.Rating,
		TasksCompleted: req.TasksCompleted,
		LastReview:     req.LastReview,
		Feedback:       req.Feedback,
	})
	if err != nil {
		return err
	}
	return utils.MutationSuccessResponse(c, fiber.StatusCreated, id, "Performance review added successfully!")
}

// UpdatePerformance handles PATCH /api/performances/:id
// @Summary Update a performance review
// @Tags Performance
// @Accept json
// @Produce json
// @Param id path string true "Review ID"
// @Param body body map[string]interface{} true "Fields to merge"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /performances/{id} [patch]
func (h *API) UpdatePerformance(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	fields, err := parsePatch(c, performancePatchFields...)
	if err != nil {
		return err
	}
	id := c.Params("id")
	if err := sess.Store.UpdatePerformanceReview(c.UserContext(), id, fields); err != nil {
		return err
	}
	return utils.MutationSuccessResponse(c, fiber.StatusOK, id, "Performance review updated successfully!")
}

// DeletePerformance handles DELETE /api/performances/:id
// @Summary Delete a performance review
// @Tags Performance
// @Produce json
// @Param id path string true "Review ID"
// @Success 200 {object} utils.SuccessResponseStruct
// @Security BearerAuth
// @Router /performances/{id} [delete]
func (h *API) DeletePerformance(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	id := c.Params("id")
	if err := sess.Store.DeletePerformanceReview(c.UserContext(), id); err != nil {
		return err
	}
	return utils.MutationSuccessResponse(c, fiber.StatusOK, id, "Performance review deleted successfully!")
}
