// settings.go
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
	"github.com/localnerve/internportal/internal/utils"
)

// ThemeRequest is the body of PUT /api/settings/theme
type ThemeRequest struct {
	Theme string `json:"theme" validate:"required,oneof=light dark"`
}

// ThemeResponse carries the current theme
type ThemeResponse struct {
	Theme string `json:"theme"`
}

// GetTheme handles GET /api/settings/theme
// @Summary Current theme
// @Tags Settings
// @Produce json
// @Success 200 {object} ThemeResponse
// @Security BearerAuth
// @Router /settings/theme [get]
func (h *API) GetTheme(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	return c.JSON(ThemeResponse{Theme: sess.Store.Theme()})
}

// PutTheme handles PUT /api/settings/theme
// @Summary Change theme
// @Description Applies at once; the stored preference is written in the background.
// @Tags Settings
// @Accept json
// @Produce json
// @Param body body ThemeRequest true "Theme"
// @Success 200 {object} ThemeResponse
// @Failure 400 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /settings/theme [put]
func (h *API) PutTheme(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	var req ThemeRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	sess.Store.SetTheme(req.Theme)
	return c.JSON(ThemeResponse{Theme: sess.Store.Theme()})
}

// Refresh handles POST /api/refresh
// @Summary Reload the session cache
// @Tags Session
// @Produce json
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /refresh [post]
func (h *API) Refresh(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	if err := sess.Store.Refresh(c.UserContext()); err != nil {
		return err
	}
	return utils.MutationSuccessResponse(c, fiber.StatusOK, "", "Data refreshed")
}

// Notifications handles GET /api/notifications
// @Summary Pending notices
// @Description Returns and clears the success and error notices raised by this session's actions.
// @Tags Session
// @Produce json
// @Success 200 {array} appstate.Notice
// @Security BearerAuth
// @Router /notifications [get]
func (h *API) Notifications(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	return c.JSON(sess.Notices.Drain())
}

// Dashboard handles GET /api/dashboard
// @Summary Dashboard summary
// @Tags Session
// @Produce json
// @Param fresh query bool false "Reload the session cache first"
// @Success 200 {object} appstate.Dashboard
// @Security BearerAuth
// @Router /dashboard [get]
func (h *API) Dashboard(c *fiber.Ctx) error {
	if err := refreshIfAsked(c); err != nil {
		return err
	}
	sess, err := session(c)
	if err != nil {
		return err
	}
	return c.JSON(sess.Store.Dashboard())
}
