package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/pocket-chat/internal/httpapi/middleware"
	"github.com/suPer8Hu/pocket-chat/internal/relay"
)

type chatReq struct {
	Message string `json:"message"`
	APIKey  string `json:"apiKey"`
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

// Chat answers POST /chat with {"response"}; demo-mode replies are 200 too.
func (h *Handler) Chat(c *gin.Context) {
	var req chatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		fail(c, http.StatusBadRequest, "Message is required")
		return
	}

	out, err := h.Relay.Reply(c.Request.Context(), req.Message, req.APIKey)
	if err != nil {
		if errors.Is(err, relay.ErrMessageRequired) {
			fail(c, http.StatusBadRequest, "Message is required")
			return
		}
		h.Log.Error().Err(err).Str("request_id", middleware.GetRequestID(c)).Msg("chat failed")
		fail(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	c.JSON(http.StatusOK, gin.H{"response": out.Text})
}
