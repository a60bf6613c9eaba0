package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"parking_finder/internal/domain"
	"parking_finder/internal/presentation"
)

type ViewHandler struct {
	sync *presentation.Sync
}

func NewViewHandler(s *presentation.Sync) *ViewHandler {
	return &ViewHandler{sync: s}
}

type UpdateViewDTO struct {
	Filter *string `json:"filter"`
	Sort   *string `json:"sort"`
}

// GET /view
func (h *ViewHandler) GetView(c *gin.Context) {
	c.JSON(http.StatusOK, h.sync.Current())
}

// PUT /view
func (h *ViewHandler) UpdateView(c *gin.Context) {
	var dto UpdateViewDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var key *domain.SortKey
	if dto.Sort != nil {
		k := domain.SortKey(*dto.Sort)
		key = &k
	}

	frame, err := h.sync.SetView(c.Request.Context(), dto.Filter, key)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, frame)
}

// POST /view/slideshow/next
func (h *ViewHandler) NextSlide(c *gin.Context) {
	c.JSON(http.StatusOK, h.sync.ShowNext())
}

// POST /view/slideshow/previous
func (h *ViewHandler) PreviousSlide(c *gin.Context) {
	c.JSON(http.StatusOK, h.sync.ShowPrevious())
}

func (h *ViewHandler) fail(c *gin.Context, err error) {
	if errors.Is(err, presentation.ErrInvalidSortKey) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not refresh the view", "details": err.Error()})
}
