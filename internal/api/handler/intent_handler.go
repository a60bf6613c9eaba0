package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"parking_finder/internal/domain"
	"parking_finder/internal/repository"
	"parking_finder/internal/service"
)

type IntentHandler struct {
	dispatcher IntentDispatcher
}

func NewIntentHandler(d IntentDispatcher) *IntentHandler {
	return &IntentHandler{dispatcher: d}
}

// POST /intents
func (h *IntentHandler) Dispatch(c *gin.Context) {
	var in domain.Intent
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.dispatcher.Dispatch(c.Request.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Parking spot not found"})
		case errors.Is(err, service.ErrUnknownIntent):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not handle intent", "details": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, res)
}
