// attendance.go
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
	"github.com/localnerve/internportal/internal/utils"
)

// CreateAttendanceRequest is the body of POST /api/attendance. Date
// defaults to today.
type CreateAttendanceRequest struct {
	InternID string `json:"internId" validate:"required"`
	Date     string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Status   string `json:"status" validate:"required,oneof=Present Absent 'Half Day' Leave"`
	CheckIn  string `json:"checkIn" validate:"omitempty,datetime=15:04"`
	CheckOut string `json:"checkOut" validate:"omitempty,datetime=15:04"`
	Notes    string `json:"notes"`
}

var attendancePatchFields = []string{"internId", "date", "status", "checkIn", "checkOut", "notes"}

// ListAttendance handles GET /api/attendance
// @Summary List attendance records
// @Description Administrators see every record, or one intern's with internId. Interns see their own.
// @Tags Attendance
// @Produce json
// @Param internId query string false "Intern ID (admin only)"
// @Param date query string false "Only records of this date (YYYY-MM-DD)"
// @Param fresh query bool false "Reload the session cache first"
// @Success 200 {array} models.Attendance
// @Security BearerAuth
// @Router /attendance [get]
func (h *API) ListAttendance(c *fiber.Ctx) error {
	if err := refreshIfAsked(c); err != nil {
		return err
	}
	sess, err := session(c)
	if err != nil {
		return err
	}

	var records []models.Attendance
	switch internID := c.Query("internId"); {
	case !sess.User.IsAdmin():
		records = sess.Store.GetInternAttendance(sess.User.ID)
	case internID != "":
		records = sess.Store.GetInternAttendance(internID)
	default:
		records = sess.Store.Attendance()
	}

	date := c.Query("date")
	if date == "" {
		return c.JSON(records)
	}
	filtered := make([]models.Attendance, 0, len(records))
	for _, r := range records {
		if r.Date == date {
			filtered = append(filtered, r)
		}
	}
	return c.JSON(filtered)
}

// CreateAttendance handles POST /api/attendance
// @Summary Mark attendance
// @Tags Attendance
// @Accept json
// @Produce json
// @Param body body CreateAttendanceRequest true "Record"
// @Success 201 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /attendance [post]
func (h *API) CreateAttendance(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	var req CreateAttendanceRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	id, err := sess.Store.AddAttendance(c.UserContext(), models.Attendance{
		InternID: req.InternID,
		Date:     req.Date,
		Status:   req.Status,
		CheckIn:  req.CheckIn,
		CheckOut: req.CheckOut,
		Notes:    req.Notes,
	})
	if err != nil {
		return err
	}
	return utils.MutationSuccessResponse(c, fiber.StatusCreated, id, "Attendance marked successfully!")
}

// UpdateAttendance handles PATCH /api/attendance/:id
// @Summary Update an attendance record
// @Tags Attendance
// @Accept json
// @Produce json
// @Param id path string true "Record ID"
// @Param body body map[string]interface{} true "Fields to merge"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /attendance/{id} [patch]
func (h *API) UpdateAttendance(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	fields, err := parsePatch(c, attendancePatchFields...)
	if err != nil {
		return err
	}
	id := c.Params("id")
	if err := sess.Store.UpdateAttendance(c.UserContext(), id, fields); err != nil {
		return err
	}
	return utils.MutationSuccessResponse(c, fiber.StatusOK, id, "Attendance updated successfully!")
}

// DeleteAttendance handles DELETE /api/attendance/:id
// @Summary Delete an attendance record
// @Tags Attendance
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} utils.SuccessResponseStruct
// @Security BearerAuth
// @Router /attendance/{id} [delete]
func (h *API) DeleteAttendance(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	id := c.Params("id")
	if err := sess.Store.DeleteAttendance(c.UserContext(), id); err != nil {
		return err
	}
	return utils.MutationSuccessResponse(c, fiber.StatusOK, id, "Attendance deleted successfully!")
}
