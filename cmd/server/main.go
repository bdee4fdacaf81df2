package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/manish14071/rca-app/internal/api"
	"github.com/manish14071/rca-app/internal/auth"
	"github.com/manish14071/rca-app/internal/config"
	"github.com/manish14071/rca-app/internal/database"
	"github.com/manish14071/rca-app/internal/email"
	"github.com/manish14071/rca-app/internal/logger"
	"github.com/manish14071/rca-app/internal/uploads"
	internalWs "github.com/manish14071/rca-app/internal/websocket"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	configPath := os.Getenv("RCA_CONFIG")
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.New("main")

	auth.InitJWTKey([]byte(cfg.JWT.Secret), cfg.JWT.Expiry)

	db, err := database.NewPostgresDB(cfg.Database.URL)
	if err != nil {
		log.Fatalf("connecting to database: %v", err)
	}
	defer db.Close()
	db.EditWindow = cfg.Database.EditWindow
	log.Info("connected to database")

	// The registry is rebuilt from zero on every boot, so persisted
	// online flags from a previous run are stale by definition.
	if err := db.ResetAllOnline(); err != nil {
		log.Warnf("resetting stale online flags: %v", err)
	}

	var mailer email.Mailer = email.NopMailer{}
	if cfg.SMTP.Host != "" {
		mailer = &email.SMTPMailer{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			From:     cfg.SMTP.From,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			BaseURL:  fmt.Sprintf("http://localhost:%d", cfg.Server.Port),
		}
	}

	blobStore, err := uploads.NewStore(cfg.Uploads.Dir, cfg.Uploads.BaseURL)
	if err != nil {
		log.Fatalf("upload store: %v", err)
	}

	manager := internalWs.NewManager(db, cfg.WebSocket.HeartbeatInterval)
	go manager.Run()
	relay := internalWs.NewRelay(manager)
	wsHandler := internalWs.NewHandler(manager, relay)

	authHandler := api.NewAuthHandler(db, mailer)
	userHandler := api.NewUserHandler(db)
	messageHandler := api.NewMessageHandler(db, relay)
	uploadHandler := api.NewUploadHandler(blobStore)

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.POST("/api/auth/register", authHandler.Register)
	router.POST("/api/auth/login", authHandler.Login)
	router.POST("/api/auth/google", authHandler.LoginExternal)
	router.GET("/api/auth/verify", authHandler.VerifyEmail)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.Static(cfg.Uploads.BaseURL, cfg.Uploads.Dir)

	authorized := router.Group("/api")
	authorized.Use(api.AuthMiddleware())
	{
		authorized.GET("/auth/me", authHandler.GetMe)
		authorized.GET("/users", userHandler.ListUsers)
		authorized.PUT("/users/me", userHandler.UpdateProfile)

		authorized.POST("/messages", messageHandler.SendMessage)
		authorized.GET("/messages/conversation/:userID", messageHandler.GetConversation)
		authorized.PUT("/messages/:messageID", messageHandler.EditMessage)
		authorized.DELETE("/messages/:messageID", messageHandler.DeleteMessage)
		authorized.PUT("/messages/:messageID/read", messageHandler.MarkMessageAsRead)
		authorized.GET("/chats", messageHandler.GetChats)

		authorized.POST("/uploads", uploadHandler.Upload)

		authorized.GET("/ws", wsHandler.Serve)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Infof("server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}

	log.Info("server exited")
}
