// Conversation HTTP handler.
//
// This file exposes the assistant endpoint:
//   - POST /query   (one conversational turn)
//
// The handler validates the payload and maps the service reply onto the wire
// shape; all conversational state lives behind ChatService.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kuberai/go-gold-backend/internal/services"
)

// ChatService defines the conversational operation consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ChatService interface {
	// Answer runs one query through the conversation state machine.
	Answer(ctx context.Context, email, query string) (*services.ChatReply, error)
}

// QueryRequest is the JSON payload for one conversational turn.
type QueryRequest struct {
	Email     string `json:"email" binding:"required,email" example:"priya@example.com"`
	UserQuery string `json:"userQuery" binding:"required" example:"should I buy digital gold?"`
}

// QueryResponse is the assistant's reply for one turn.
type QueryResponse struct {
	Message            string   `json:"message"`
	RedirectToPurchase bool     `json:"redirectToPurchase"`
	PreviousContext    []string `json:"previousContext,omitempty"`
}

// PostQuery handles one assistant turn. Empty or over-long queries are 400s;
// upstream failures never surface here because the service layer masks them
// with fallback replies.
func (h *Handlers) PostQuery(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Please provide a valid query.")
		return
	}

	reply, err := h.chatSvc.Answer(c.Request.Context(), req.Email, req.UserQuery)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyQuery):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Please provide a valid query.")
		case errors.Is(err, services.ErrQueryTooLong):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "query too long")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeAnswerFailed, err.Error())
		}
		return
	}

	ok(c, http.StatusOK, QueryResponse{
		Message:            reply.Message,
		RedirectToPurchase: reply.RedirectToPurchase,
		PreviousContext:    reply.PreviousContext,
	})
}
