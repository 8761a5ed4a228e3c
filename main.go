package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/pantherdox/mini-crm-backend/internal/activity"
	"github.com/pantherdox/mini-crm-backend/internal/config"
	"github.com/pantherdox/mini-crm-backend/internal/database"
	"github.com/pantherdox/mini-crm-backend/internal/handlers"
	"github.com/pantherdox/mini-crm-backend/internal/middleware"
	"github.com/pantherdox/mini-crm-backend/internal/models"
	"github.com/pantherdox/mini-crm-backend/internal/queue"
)

func main() {
	config.Load()

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(config.AppEnv.DBName)

	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureUserIndexes(db); err != nil {
		log.Printf("user index warning: %v", err)
	}
	if err := database.EnsureLeadIndexes(db); err != nil {
		log.Printf("lead index warning: %v", err)
	}
	if err := database.EnsureRefreshTokenIndexes(db); err != nil {
		log.Printf("refresh token index warning: %v", err)
	}
	if err := database.EnsureActivityIndexes(db); err != nil {
		log.Printf("activity index warning: %v", err)
	}

	var publisher *queue.Publisher
	if config.AppEnv.AMQPURL != "" {
		publisher, err = queue.NewPublisher(config.AppEnv.AMQPURL)
		if err != nil {
			log.Printf("activity events disabled, broker unavailable: %v", err)
		} else {
			defer publisher.Close()
		}
	}
	recorder := activity.NewRecorder(db, publisher)

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("dashboard cache disabled, no Redis configured")
	}

	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	authGuard := middleware.Auth(db, config.AppEnv.JWTSecret)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	authGroup := r.Group("/api/auth")
	{
		authGroup.POST("/login", handlers.Login(
			db,
			config.AppEnv.JWTSecret,
			config.AppEnv.AccessTokenTTL,
			config.AppEnv.RefreshTokenTTL,
		))
		authGroup.POST("/refresh", handlers.Refresh(db, config.AppEnv.JWTSecret, config.AppEnv.AccessTokenTTL))
		authGroup.POST("/logout", handlers.Logout(db))

		authGroup.POST("/bootstrap", handlers.Bootstrap(db))
		authGroup.GET("/bootstrap/check", handlers.CheckBootstrap(db))

		authGroup.GET("/me", authGuard, handlers.Me(db))
		authGroup.POST("/register", authGuard, adminOnly, handlers.Register(db))
		authGroup.GET("/users", authGuard, adminOnly, handlers.ListUsers(db))
		authGroup.PATCH("/users/:id", authGuard, adminOnly, handlers.UpdateUser(db))
		authGroup.DELETE("/users/:id", authGuard, adminOnly, handlers.DeleteUser(db))
	}

	leads := r.Group("/api/leads")
	leads.Use(authGuard)
	{
		leads.GET("", handlers.ListLeads(db))
		leads.GET("/:id", handlers.GetLead(db))
		leads.POST("", handlers.CreateLead(db, recorder))
		leads.PATCH("/:id", handlers.UpdateLead(db, recorder))
		leads.DELETE("/:id", handlers.SetLeadArchived(db, recorder, true))
		leads.PATCH("/:id/archive", handlers.SetLeadArchived(db, recorder, true))
		leads.PATCH("/:id/unarchive", handlers.SetLeadArchived(db, recorder, false))
		leads.POST("/:id/convert", handlers.ConvertLead(db, recorder))
		leads.POST("/:id/reassign", handlers.ReassignLead(db, recorder))
	}

	customers := r.Group("/api/customers")
	customers.Use(authGuard)
	{
		customers.GET("", handlers.ListCustomers(db))
		customers.GET("/:id", handlers.GetCustomer(db))
		customers.POST("", handlers.CreateCustomer(db, recorder))
		customers.PATCH("/:id", handlers.UpdateCustomer(db, recorder))
		customers.POST("/:id/notes", handlers.AddCustomerNote(db, recorder))
	}

	tasks := r.Group("/api/tasks")
	tasks.Use(authGuard)
	{
		tasks.GET("", handlers.ListTasks(db))
		tasks.POST("", handlers.CreateTask(db, recorder))
		tasks.PATCH("/:id", handlers.UpdateTask(db, recorder))
	}

	r.GET("/api/activity", authGuard, handlers.ListActivity(db))
	r.GET("/api/dashboard", authGuard, handlers.DashboardStats(db, rdb))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r.Run(":" + port)
}
