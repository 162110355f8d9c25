// chats.go
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
	"github.com/localnerve/internportal/internal/services"
	"github.com/localnerve/internportal/internal/types"
	"github.com/localnerve/internportal/internal/utils"
)

// CreateChatRequest is the body of POST /api/chats. Administrators name the
// intern to talk to; interns always talk to the administrator.
type CreateChatRequest struct {
	ParticipantID string `json:"participantId"`
}

// SendMessageRequest is the body of POST /api/chats/:id/messages
type SendMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

// ListChats handles GET /api/chats
// @Summary List chats
// @Description Chats the signed in user takes part in
// @Tags Chats
// @Produce json
// @Param fresh query bool false "Reload the session cache first"
// @Success 200 {array} models.Chat
// @Security BearerAuth
// @Router /chats [get]
func (h *API) ListChats(c *fiber.Ctx) error {
	if err := refreshIfAsked(c); err != nil {
		return err
	}
	sess, err := session(c)
	if err != nil {
		return err
	}
	return c.JSON(sess.Store.UserChats(sess.User.ID))
}

// CreateChat handles POST /api/chats
// @Summary Start a chat
// @Description Returns the existing chat when one already links the two users.
// @Tags Chats
// @Accept json
// @Produce json
// @Param body body CreateChatRequest true "Participant"
// @Success 200 {object} utils.SuccessResponseStruct "Existing chat"
// @Success 201 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /chats [post]
func (h *API) CreateChat(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	var req CreateChatRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	internID := sess.User.ID
	if sess.User.IsAdmin() {
		internID = req.ParticipantID
		if internID == "" {
			return types.Invalid("participantId is required")
		}
	}
	intern, ok := sess.Store.GetIntern(internID)
	if !ok {
		return types.Invalid("Unknown intern '" + internID + "'")
	}

	if existing, ok := sess.Store.FindChat(models.AdminID, internID); ok {
		return utils.MutationSuccessResponse(c, fiber.StatusOK, existing.ID, "Chat already exists")
	}

	id, err := sess.Store.CreateChat(c.UserContext(),
		[]string{models.AdminID, internID},
		[]string{h.Sessions.Resolver().AdminName(), intern.Name})
	if err != nil {
		return err
	}
	return utils.MutationSuccessResponse(c, fiber.StatusCreated, id, "Chat created")
}

// ListMessages handles GET /api/chats/:id/messages
// @Summary Chat messages
// @Description Messages oldest first. isOwn marks the caller's messages.
// @Tags Chats
// @Produce json
// @Param id path string true "Chat ID"
// @Success 200 {array} models.Message
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /chats/{id}/messages [get]
func (h *API) ListMessages(c *fiber.Ctx) error {
	sess, chat, err := participantChat(c)
	if err != nil {
		return err
	}
	msgs, err := sess.Store.Messages(c.UserContext(), chat.ID)
	if err != nil {
		return err
	}
	return c.JSON(msgs)
}

// SendMessage handles POST /api/chats/:id/messages
// @Summary Send a message
// @Tags Chats
// @Accept json
// @Produce json
// @Param id path string true "Chat ID"
// @Param body body SendMessageRequest true "Message"
// @Success 201 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /chats/{id}/messages [post]
func (h *API) SendMessage(c *fiber.Ctx) error {
	sess, chat, err := participantChat(c)
	if err != nil {
		return err
	}
	var req SendMessageRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	if err := sess.Store.SendMessage(c.UserContext(), chat.ID, req.Content, sess.User.ID, sess.User.Name); err != nil {
		return err
	}
	return utils.MutationSuccessResponse(c, fiber.StatusCreated, chat.ID, "Message sent")
}

// MarkRead handles POST /api/chats/:id/read
// @Summary Mark a chat read
// @Description Zeroes the caller's unread counter
// @Tags Chats
// @Produce json
// @Param id path string true "Chat ID"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /chats/{id}/read [post]
func (h *API) MarkRead(c *fiber.Ctx) error {
	sess, chat, err := participantChat(c)
	if err != nil {
		return err
	}
	if err := sess.Store.MarkMessagesAsRead(c.UserContext(), chat.ID, sess.User.ID); err != nil {
		return err
	}
	return utils.MutationSuccessResponse(c, fiber.StatusOK, chat.ID, "")
}

// participantChat loads the path chat, reloading once on a cache miss, and
// hides chats the caller is not part of.
func participantChat(c *fiber.Ctx) (*services.Session, models.Chat, error) {
	sess, err := session(c)
	if err != nil {
		return nil, models.Chat{}, err
	}
	id := c.Params("id")
	chat, ok := sess.Store.Chat(id)
	if !ok {
		if err := sess.Store.Refresh(c.UserContext()); err != nil {
			return nil, models.Chat{}, err
		}
		chat, ok = sess.Store.Chat(id)
	}
	if !ok || !chat.HasParticipant(sess.User.ID) {
		return nil, models.Chat{}, fiber.NewError(fiber.StatusNotFound, "Chat '"+id+"' not found")
	}
	return sess, chat, nil
}
