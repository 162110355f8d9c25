// tasks.go
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
	"slices"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/internportal/internal/models"
	"github.com/localnerve/internportal/internal/services"
	"github.com/localnerve/internportal/internal/utils"
)

// CreateTaskRequest is the body of POST /api/tasks. AssignedTo is filled
// from the intern when omitted.
type CreateTaskRequest struct {
	Title        string `json:"title" validate:"required"`
	Description  string `json:"description"`
	AssignedTo   string `json:"assignedTo"`
	AssignedToID string `json:"assignedToId" validate:"required"`
	Deadline     string `json:"deadline" validate:"omitempty,datetime=2006-01-02"`
	Status       string `json:"status" validate:"omitempty,oneof='To Do' 'In Progress' Completed"`
	Priority     string `json:"priority" validate:"omitempty,oneof=High Medium Low"`
}

// TaskStatusRequest is the body of PATCH /api/tasks/:id/status
type TaskStatusRequest struct {
	Status string `json:"status" validate:"required,oneof='To Do' 'In Progress' Completed"`
}

var taskPatchFields = []string{"title", "description", "assignedTo", "assignedToId", "deadline", "status", "priority"}

// ListTasks handles GET /api/tasks
// @Summary List tasks
// @Description Administrators see every task, optionally filtered by intern. Interns see their own.
// @Tags Tasks
// @Produce json
// @Param assignedToId query string false "Intern ID (admin only)"
// @Param status query string false "Comma-separated statuses"
// @Param priority query string false "Comma-separated priorities"
// @Param fresh query bool false "Reload the session cache first"
// @Success 200 {array} models.Task
// @Security BearerAuth
// @Router /tasks [get]
func (h *API) ListTasks(c *fiber.Ctx) error {
	if err := refreshIfAsked(c); err != nil {
		return err
	}
	sess, err := session(c)
	if err != nil {
		return err
	}

	var tasks []models.Task
	switch internID := c.Query("assignedToId"); {
	case !sess.User.IsAdmin():
		tasks = sess.Store.TasksFor(sess.User.ID)
	case internID != "":
		tasks = sess.Store.TasksFor(internID)
	default:
		tasks = sess.Store.Tasks()
	}

	statuses, priorities := parseQueryList(c, "status"), parseQueryList(c, "priority")
	filtered := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if len(statuses) > 0 && !slices.Contains(statuses, t.Status) {
			continue
		}
		if len(priorities) > 0 && !slices.Contains(priorities, t.Priority) {
			continue
		}
		filtered = append(filtered, t)
	}
	return c.JSON(filtered)
}

// CreateTask handles POST /api/tasks
// @Summary Create a task
// @Tags Tasks
// @Accept json
// @Produce json
// @Param body body CreateTaskRequest true "Task"
// @Success 201 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /tasks [post]
func (h *API) CreateTask(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	var req CreateTaskRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	if req.AssignedTo == "" {
		if intern, ok := sess.Store.GetIntern(req.AssignedToID); ok {
			req.AssignedTo = intern.Name
		}
	}

	id, err := sess.Store.AddTask(c.UserContext(), models.Task{
		Title:        req.Title,
		Description:  req.Description,
		AssignedTo:   req.AssignedTo,
		AssignedToID: req.AssignedToID,
		Deadline:     req.Deadline,
		Status:       req.Status,
		Priority:     req.Priority,
	})
	if err != nil {
		return err
	}
	return utils.MutationSuccessResponse(c, fiber.StatusCreated, id, "Task created successfully!")
}

// UpdateTask handles PATCH /api/tasks/:id
// @Summary Update a task
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param body body map[string]interface{} true "Fields to merge"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /tasks/{id} [patch]
func (h *API) UpdateTask(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	fields, err := parsePatch(c, taskPatchFields...)
	if err != nil {
		return err
	}
	id := c.Params("id")
	if err := sess.Store.UpdateTask(c.UserContext(), id, fields); err != nil {
		return err
	}
	return utils.MutationSuccessResponse(c, fiber.StatusOK, id, "Task updated successfully!")
}

// DeleteTask handles DELETE /api/tasks/:id
// @Summary Delete a task
// @Tags Tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} utils.SuccessResponseStruct
// @Security BearerAuth
// @Router /tasks/{id} [delete]
func (h *API) DeleteTask(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	id := c.Params("id")
	if err := sess.Store.DeleteTask(c.UserContext(), id); err != nil {
		return err
	}
	return utils.MutationSuccessResponse(c, fiber.StatusOK, id, "Task deleted successfully!")
}

// UpdateTaskStatus handles PATCH /api/tasks/:id/status
// @Summary Move a task
// @Description Any status may follow any other. Interns may only move their own tasks.
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param body body TaskStatusRequest true "Status"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /tasks/{id}/status [patch]
func (h *API) UpdateTaskStatus(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	var req TaskStatusRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	id := c.Params("id")

	if !sess.User.IsAdmin() {
		owned, err := ownsTask(c, sess, id)
		if err != nil {
			return err
		}
		if !owned {
			return utils.NotFoundResponse(c, "Task '"+id+"' not found")
		}
	}

	if err := sess.Store.UpdateTaskStatus(c.UserContext(), id, req.Status); err != nil {
		return err
	}
	return utils.MutationSuccessResponse(c, fiber.StatusOK, id, "Task status updated!")
}

// ownsTask checks the intern's cached tasks, reloading once on a miss
func ownsTask(c *fiber.Ctx, sess *services.Session, id string) (bool, error) {
	has := func() bool {
		return slices.ContainsFunc(sess.Store.TasksFor(sess.User.ID), func(t models.Task) bool { return t.ID == id })
	}
	if has() {
		return true, nil
	}
	if err := sess.Store.Refresh(c.UserContext()); err != nil {
		return false, err
	}
	return has(), nil
}
