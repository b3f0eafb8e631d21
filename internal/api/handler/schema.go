package handler

import (
	"time"

	"github.com/workmanagement/taskboard/internal/core/board"
	"github.com/workmanagement/taskboard/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Auth ---

type signupRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role"     validate:"omitempty,oneof=admin worker"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token string       `json:"token,omitempty"`
	User  *domain.User `json:"user,omitempty"`
}

// --- Tasks ---

type createTaskRequest struct {
	Title       string     `json:"title"       validate:"required"`
	Description string     `json:"description"`
	AssignedTo  string     `json:"assigned_to" validate:"required"`
	DueDate     *time.Time `json:"due_date"`
	Priority    string     `json:"priority"    validate:"omitempty,oneof=low medium high"`
	Status      string     `json:"status"      validate:"omitempty,oneof=to-do in-progress completed"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=to-do in-progress completed"`
}

// taskView is a task decorated with its due-date urgency.
type taskView struct {
	*domain.Task
	Urgency board.Urgency `json:"urgency"`
}

type columnResponse struct {
	Status domain.TaskStatus `json:"status"`
	Tasks  []taskView        `json:"tasks"`
}

type boardResponse struct {
	Columns []columnResponse `json:"columns"`
}

// --- Users & presence ---

// userView is a roster entry with a human-readable last-seen label.
type userView struct {
	*domain.User
	LastSeenLabel string `json:"last_seen_label"`
}

type presenceRequest struct {
	Online *bool `json:"online" validate:"required"`
}

// --- Messages ---

type sendMessageRequest struct {
	Message string `json:"message"`
}

type conversationResponse struct {
	ConversationID string            `json:"conversation_id"`
	Messages       []*domain.Message `json:"messages"`
}

// --- Notifications ---

type pushTokenRequest struct {
	Token      string `json:"token"`
	Permission string `json:"permission" validate:"omitempty,oneof=granted denied default"`
}

type pushConfigResponse struct {
	VAPIDKey string `json:"vapid_key"`
}

// --- Pages ---

// pageView describes which client view to render for a page route.
type pageView struct {
	View           string `json:"view"`
	Role           string `json:"role,omitempty"`
	UserID         string `json:"user_id,omitempty"`
	ReceiverID     string `json:"receiver_id,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
}
