// auth.go
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
	"github.com/localnerve/internportal/internal/middleware"
	"github.com/localnerve/internportal/internal/models"
	"github.com/localnerve/internportal/internal/utils"
)

// LoginRequest is the body of POST /api/auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the session token and the resolved user
type LoginResponse struct {
	Token string          `json:"token"`
	User  *models.AppUser `json:"user"`
	Theme string          `json:"theme"`
}

// PasswordRequest is the body of POST /api/auth/password
type PasswordRequest struct {
	NewPassword     string `json:"newPassword" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

// MeResponse describes the signed in user
type MeResponse struct {
	User    *models.AppUser `json:"user"`
	Theme   string          `json:"theme"`
	Loading bool            `json:"loading"`
}

// Login handles POST /api/auth/login
// @Summary Sign in
// @Description Sign in with email and password. The returned token is sent as a Bearer token afterwards.
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 401 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Router /auth/login [post]
func (h *API) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	sess, err := h.Sessions.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(LoginResponse{
		Token: sess.Auth.Token(),
		User:  sess.User,
		Theme: sess.Store.Theme(),
	})
}

// Logout handles POST /api/auth/logout
// @Summary Sign out
// @Description Sign out and drop the session cache
// @Tags Auth
// @Produce json
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 401 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /auth/logout [post]
func (h *API) Logout(c *fiber.Ctx) error {
	if err := h.Sessions.Logout(c.UserContext(), middleware.Token(c)); err != nil {
		return err
	}
	return utils.MutationSuccessResponse(c, fiber.StatusOK, "", "Signed out")
}

// ChangePassword handles POST /api/auth/password
// @Summary Change password
// @Description Change the signed in user's password. The confirmation must match and be at least 6 characters.
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body PasswordRequest true "New password"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 401 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /auth/password [post]
func (h *API) ChangePassword(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	var req PasswordRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	if err := h.Sessions.ChangePassword(c.UserContext(), sess, req.NewPassword, req.ConfirmPassword); err != nil {
		return err
	}
	return utils.MutationSuccessResponse(c, fiber.StatusOK, "", "Password updated successfully!")
}

// Me handles GET /api/auth/me
// @Summary Current user
// @Tags Auth
// @Produce json
// @Success 200 {object} MeResponse
// @Failure 401 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /auth/me [get]
func (h *API) Me(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	return c.JSON(MeResponse{
		User:    sess.User,
		Theme:   sess.Store.Theme(),
		Loading: sess.Store.Loading(),
	})
}
