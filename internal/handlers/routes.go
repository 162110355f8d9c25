// routes.go
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
)

// Register mounts the API under /api
func (h *API) Register(router fiber.Router) {
	api := router.Group("/api", middleware.VersionMiddleware())

	auth := middleware.Session(h.Sessions)
	admin := middleware.RequireRole(models.RoleAdmin)

	api.Post("/auth/login", h.Login)
	api.Post("/auth/logout", auth, h.Logout)
	api.Post("/auth/password", auth, h.ChangePassword)
	api.Get("/auth/me", auth, h.Me)

	api.Get("/interns", auth, admin, h.ListInterns)
	api.Get("/interns/lookup", auth, admin, h.LookupIntern)
	api.Post("/interns", auth, admin, h.CreateIntern)
	api.Patch("/interns/:id", auth, admin, h.UpdateIntern)
	api.Delete("/interns/:id", auth, admin, h.DeleteIntern)

	api.Get("/tasks", auth, h.ListTasks)
	api.Post("/tasks", auth, admin, h.CreateTask)
	api.Patch("/tasks/:id/status", auth, h.UpdateTaskStatus)
	api.Patch("/tasks/:id", auth, admin, h.UpdateTask)
	api.Delete("/tasks/:id", auth, admin, h.DeleteTask)

	api.Get("/performances", auth, h.ListPerformances)
	api.Post("/performances", auth, admin, h.CreatePerformance)
	api.Patch("/performances/:id", auth, admin, h.UpdatePerformance)
	api.Delete("/performances/:id", auth, admin, h.DeletePerformance)

	api.Get("/attendance", auth, h.ListAttendance)
	api.Post("/attendance", auth, admin, h.CreateAttendance)
	api.Patch("/attendance/:id", auth, admin, h.UpdateAttendance)
	api.Delete("/attendance/:id", auth, admin, h.DeleteAttendance)

	api.Get("/chats", auth, h.ListChats)
	api.Post("/chats", auth, h.CreateChat)
	api.Get("/chats/:id/messages", auth, h.ListMessages)
	api.Post("/chats/:id/messages", auth, h.SendMessage)
	api.Post("/chats/:id/read", auth, h.MarkRead)

	api.Get("/settings/theme", auth, h.GetTheme)
	api.Put("/settings/theme", auth, h.PutTheme)
	api.Post("/refresh", auth, h.Refresh)
	api.Get("/notifications", auth, h.Notifications)
	api.Get("/dashboard", auth, h.Dashboard)
}
