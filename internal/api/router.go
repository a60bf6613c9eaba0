package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"parking_finder/internal/api/handler"
	"parking_finder/internal/logger"
	"parking_finder/internal/metrics"
	"parking_finder/internal/presentation"
	"parking_finder/internal/service"
)

func SetupRouter(fs *service.FinderService, ps *presentation.Sync, ts *service.ThemeService,
	wsManager *handler.WebSocketManager) *gin.Engine {
	registerValidators()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.AccessMiddleware(logger.L()))

	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, accept, origin, Cache-Control, X-Requested-With, "+handler.SystemThemeHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, PATCH, DELETE")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "state": ps.State().String(), "version": ps.Current().Version})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	wsHandler := handler.NewWebSocketHandler(wsManager, fs)
	r.GET("/ws", wsHandler.HandleWebSocket)

	v1 := r.Group("/api/v1")
	{
		spotH := handler.NewParkingSpotHandler(fs)
		spotRoutes := v1.Group("/parking-spots")
		{
			spotRoutes.POST("", spotH.CreateParkingSpot)
			spotRoutes.GET("", spotH.GetAllParkingSpots)
			spotRoutes.POST("/reload", spotH.ReloadParkingSpots)
			spotRoutes.GET("/:id", spotH.GetParkingSpotByID)
			spotRoutes.PATCH("/:id", spotH.UpdateParkingSpot)
			spotRoutes.DELETE("/:id", spotH.DeleteParkingSpot)
		}
		v1.GET("/categories", spotH.GetCategories)

		viewH := handler.NewViewHandler(ps)
		viewRoutes := v1.Group("/view")
		{
			viewRoutes.GET("", viewH.GetView)
			viewRoutes.PUT("", viewH.UpdateView)
			viewRoutes.POST("/slideshow/next", viewH.NextSlide)
			viewRoutes.POST("/slideshow/previous", viewH.PreviousSlide)
		}

		locH := handler.NewLocationHandler(fs)
		locRoutes := v1.Group("/location")
		{
			locRoutes.GET("", locH.GetLocation)
			locRoutes.PUT("", locH.SetLocation)
			locRoutes.POST("/locate", locH.Locate)
		}

		themeH := handler.NewThemeHandler(ts)
		v1.GET("/theme", themeH.GetTheme)
		v1.POST("/theme/toggle", themeH.ToggleTheme)

		intentH := handler.NewIntentHandler(fs)
		v1.POST("/intents", intentH.Dispatch)
	}
	return r
}
