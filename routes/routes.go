package routes

import (
	"booking-miniapp/handlers"
	"booking-miniapp/middleware"

	"github.com/gin-gonic/gin"
)

// SetupRoutes registers the Mini-App API. limiter may be nil.
func SetupRoutes(r *gin.Engine, gw *handlers.Gateway, limiter *middleware.RateLimiter) {
	authHandler := &handlers.AuthHandler{Gateway: gw}
	scheduleHandler := &handlers.ScheduleHandler{Gateway: gw}
	serviceHandler := &handlers.ServiceHandler{Gateway: gw}
	profileHandler := &handlers.ProfileHandler{Gateway: gw}
	recordsHandler := &handlers.RecordsHandler{Gateway: gw}
	publicHandler := &handlers.PublicHandler{Gateway: gw}

	app := r.Group("/app")
	if limiter != nil {
		app.Use(limiter.Middleware())
	}
	{
		app.POST("/auth/login", authHandler.Login)

		// Public booking page
		app.GET("/booking/:slug", publicHandler.GetPage)
		app.GET("/booking/:slug/slots", publicHandler.GetSlots)
		app.POST("/booking/:slug/book", publicHandler.Book)
	}

	protected := app.Group("")
	protected.Use(middleware.AuthMiddleware())
	{
		protected.GET("/auth/status", authHandler.Status)
		protected.POST("/auth/logout", authHandler.Logout)

		// Schedule editor
		protected.GET("/schedule", scheduleHandler.GetSchedule)
		protected.GET("/schedule/month", scheduleHandler.GetMonth)
		protected.GET("/schedule/days/:date", scheduleHandler.GetDay)
		protected.GET("/schedule/availability", scheduleHandler.Availability)
		protected.POST("/schedule/selection", scheduleHandler.ToggleDate)
		protected.DELETE("/schedule/selection", scheduleHandler.ClearSelection)
		protected.PUT("/schedule/dates", scheduleHandler.SaveDates)
		protected.PUT("/schedule/weekdays/:day", scheduleHandler.SaveWeekday)
		protected.PUT("/schedule/template", scheduleHandler.SaveTemplate)

		// Services catalog
		protected.GET("/services", serviceHandler.ListServices)
		protected.POST("/services", serviceHandler.CreateService)
		protected.GET("/services/:id", serviceHandler.GetService)
		protected.PUT("/services/:id", serviceHandler.UpdateService)
		protected.DELETE("/services/:id", serviceHandler.DeleteService)

		// Profile
		protected.GET("/profile", profileHandler.GetProfile)
		protected.PUT("/profile", profileHandler.UpdateProfile)
		protected.POST("/profile/booking-link", profileHandler.GenerateBookingLink)
		protected.DELETE("/profile/booking-link", profileHandler.DeleteBookingLink)
		protected.POST("/profile/avatar", profileHandler.UploadAvatar)
		protected.POST("/profile/avatar/telegram", profileHandler.ImportTelegramAvatar)

		// Records
		protected.GET("/records", recordsHandler.ListRecords)
	}

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
}
