package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/workmanagement/taskboard/internal/api/metrics"
	"github.com/workmanagement/taskboard/internal/core/domain"
	"github.com/workmanagement/taskboard/internal/core/ports"
)

// MessageHandler serves the direct conversation between the caller and
// :receiverId.
type MessageHandler struct {
	messages ports.MessageService
}

func NewMessageHandler(messages ports.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

func conversation(cid string, msgs []*domain.Message) conversationResponse {
	if msgs == nil {
		msgs = []*domain.Message{}
	}
	return conversationResponse{ConversationID: cid, Messages: msgs}
}

// List returns the conversation ordered by timestamp.
//
// @Summary      Conversation
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        receiverId  path      string  true  "Other participant"
// @Success      200         {object}  conversationResponse
// @Router       /v1/messages/{receiverId} [get]
func (h *MessageHandler) List(c echo.Context) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}

	cid := domain.ConversationID(sess.UserID, c.Param("receiverId"))
	msgs, err := h.messages.ListConversation(c.Request().Context(), cid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, conversation(cid, msgs))
}

// Send stores a message. Blank messages are accepted and ignored.
//
// @Summary      Send a message
// @Tags         messages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        receiverId  path      string              true  "Receiver"
// @Param        body        body      sendMessageRequest  true  "Message"
// @Success      201         {object}  domain.Message
// @Success      204
// @Failure      404         {object}  errorResponse
// @Router       /v1/messages/{receiverId} [post]
func (h *MessageHandler) Send(c echo.Context) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}

	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	msg, err := h.messages.Send(c.Request().Context(), sess.UserID, c.Param("receiverId"), req.Message)
	if err != nil {
		return err
	}
	if msg == nil {
		return c.NoContent(http.StatusNoContent)
	}

	metrics.MessagesSentTotal.Inc()
	return c.JSON(http.StatusCreated, msg)
}

// Stream pushes the whole conversation on every new message.
//
// @Summary      Conversation stream
// @Tags         messages
// @Produce      text/event-stream
// @Security     BearerAuth
// @Param        receiverId  path  string  true  "Other participant"
// @Success      200         {object}  conversationResponse
// @Router       /v1/messages/{receiverId}/stream [get]
func (h *MessageHandler) Stream(c echo.Context) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}

	cid := domain.ConversationID(sess.UserID, c.Param("receiverId"))
	s, err := h.messages.WatchConversation(c.Request().Context(), cid)
	if err != nil {
		return err
	}
	return streamSSE(c, "messages", s, func(msgs []*domain.Message) any { return conversation(cid, msgs) })
}
