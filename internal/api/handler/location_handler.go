package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"parking_finder/internal/domain"
	"parking_finder/internal/service"
)

type LocationHandler struct {
	finder *service.FinderService
}

func NewLocationHandler(fs *service.FinderService) *LocationHandler {
	return &LocationHandler{finder: fs}
}

// GET /location
func (h *LocationHandler) GetLocation(c *gin.Context) {
	loc := h.finder.Location()
	if loc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Location not set"})
		return
	}
	c.JSON(http.StatusOK, loc)
}

// PUT /location
func (h *LocationHandler) SetLocation(c *gin.Context) {
	var dto domain.LocationDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	frame, err := h.finder.SetLocation(c.Request.Context(), domain.Coordinates{Lat: *dto.Lat, Lng: *dto.Lng})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update location", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, frame)
}

// POST /location/locate
func (h *LocationHandler) Locate(c *gin.Context) {
	loc, frame, err := h.finder.Locate(c.Request.Context(), c.ClientIP())
	if err != nil {
		if errors.Is(err, service.ErrSuperseded) {
			c.JSON(http.StatusConflict, gin.H{"error": "A newer location was set meanwhile", "location": loc})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not determine location", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"location": loc, "frame": frame})
}
