package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"parking_finder/internal/domain"
	"parking_finder/internal/repository"
	"parking_finder/internal/service"
	"parking_finder/internal/source"
)

type ParkingSpotHandler struct {
	finder *service.FinderService
}

func NewParkingSpotHandler(fs *service.FinderService) *ParkingSpotHandler {
	return &ParkingSpotHandler{finder: fs}
}

// POST /parking-spots
func (h *ParkingSpotHandler) CreateParkingSpot(c *gin.Context) {
	var dto domain.ParkingSpotDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	spot, err := h.finder.CreateSpot(c.Request.Context(), dto.ToSpot())
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSpot) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create parking spot", "details": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, spot)
}

// GET /parking-spots
func (h *ParkingSpotHandler) GetAllParkingSpots(c *gin.Context) {
	spots, err := h.finder.Spots(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not list parking spots"})
		return
	}
	c.JSON(http.StatusOK, spots)
}

// GET /parking-spots/:id
func (h *ParkingSpotHandler) GetParkingSpotByID(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid parking spot ID"})
		return
	}

	spot, err := h.finder.Spot(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Parking spot not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load parking spot"})
		return
	}
	c.JSON(http.StatusOK, spot)
}

// PATCH /parking-spots/:id
func (h *ParkingSpotHandler) UpdateParkingSpot(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid parking spot ID"})
		return
	}

	var patch domain.ParkingSpotPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	spot, err := h.finder.UpdateSpot(c.Request.Context(), id, patch)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Parking spot not found"})
			return
		}
		if errors.Is(err, domain.ErrInvalidSpot) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update parking spot", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, spot)
}

// DELETE /parking-spots/:id
func (h *ParkingSpotHandler) DeleteParkingSpot(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid parking spot ID"})
		return
	}

	removed, err := h.finder.DeleteSpot(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not delete parking spot", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "deleted": removed})
}

// POST /parking-spots/reload
func (h *ParkingSpotHandler) ReloadParkingSpots(c *gin.Context) {
	frame, err := h.finder.Load(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrSuperseded) {
			c.JSON(http.StatusConflict, gin.H{"error": "A newer reload already completed"})
			return
		}
		if errors.Is(err, source.ErrDataFormat) {
			c.JSON(http.StatusBadGateway, gin.H{"error": frame.Error, "details": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": frame.Error, "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, frame)
}

// GET /categories
func (h *ParkingSpotHandler) GetCategories(c *gin.Context) {
	categories, err := h.finder.Categories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not list categories"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": append([]string{domain.FilterAll}, categories...)})
}
