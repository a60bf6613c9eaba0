package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"parking_finder/internal/service"
)

// SystemThemeHeader is the client hint carrying the OS colour scheme.
const SystemThemeHeader = "Sec-CH-Prefers-Color-Scheme"

type ThemeHandler struct {
	themes *service.ThemeService
}

func NewThemeHandler(ts *service.ThemeService) *ThemeHandler {
	return &ThemeHandler{themes: ts}
}

// GET /theme
func (h *ThemeHandler) GetTheme(c *gin.Context) {
	c.Header("Accept-CH", SystemThemeHeader)
	theme := h.themes.Resolve(c.Request.Context(), c.GetHeader(SystemThemeHeader))
	c.JSON(http.StatusOK, gin.H{"theme": theme})
}

// POST /theme/toggle
func (h *ThemeHandler) ToggleTheme(c *gin.Context) {
	theme, err := h.themes.Toggle(c.Request.Context(), c.GetHeader(SystemThemeHeader))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not save theme preference", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"theme": theme})
}
