package main

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/notevault/backend/internal/client"
	"github.com/notevault/backend/internal/config"
	"github.com/notevault/backend/internal/db"
	"github.com/notevault/backend/internal/handler"
	"github.com/notevault/backend/internal/mailer"
	"github.com/notevault/backend/internal/model"
	"github.com/notevault/backend/internal/ratelimit"
	"github.com/notevault/backend/internal/service"
	"github.com/notevault/backend/internal/storage"
	"github.com/notevault/backend/internal/token"
)

// @title NoteVault API
// @version 1.0
// @description Multi-user note-taking backend with token based authentication.
// @BasePath /
// @securityDefinitions.apikey AccessToken
// @in header
// @name accesstoken
// @securityDefinitions.apikey RefreshToken
// @in header
// @name refreshtoken
func main() {
	_ = godotenv.Load()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	cfg := config.Load()
	ctx := context.Background()

	pool, err := db.NewPostgresPool(ctx)
	if err != nil {
		log.Error("postgres connect failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	bcryptCost := 0
	if cfg.Auth.BcryptCost != "" {
		bcryptCost, err = strconv.Atoi(cfg.Auth.BcryptCost)
		if err != nil {
			log.Error("invalid BCRYPT_COST", "value", cfg.Auth.BcryptCost)
			os.Exit(1)
		}
	}

	store := db.New(pool, bcryptCost)
	if err := store.EnsureSchema(ctx); err != nil {
		log.Error("schema setup failed", "error", err)
		os.Exit(1)
	}

	keys, err := token.LoadKeyStore(cfg.Auth)
	if err != nil {
		log.Error("key load failed", "error", err)
		os.Exit(1)
	}
	codec := token.NewCodec(keys)

	sender, err := mailer.NewSMTPSender(cfg.SMTP)
	if err != nil {
		log.Error("smtp setup failed", "error", err)
		os.Exit(1)
	}
	queueSize, err := strconv.Atoi(cfg.SMTP.QueueSize)
	if err != nil || queueSize <= 0 {
		log.Error("invalid MAIL_QUEUE_SIZE", "value", cfg.SMTP.QueueSize)
		os.Exit(1)
	}
	dispatcher := mailer.NewDispatcher(sender, queueSize, log)
	dispatcher.Start(ctx)
	defer dispatcher.Close()

	authSvc, err := service.NewAuthService(store, store, codec, dispatcher, cfg.Auth)
	if err != nil {
		log.Error("auth service setup failed", "error", err)
		os.Exit(1)
	}

	var summarizer service.Summarizer
	if cfg.Summarizer.APIKey != "" {
		summarizerClient, err := client.NewSummarizerClient(cfg.Summarizer)
		if err != nil {
			log.Error("summarizer setup failed", "error", err)
			os.Exit(1)
		}
		summarizer = summarizerClient
	} else {
		log.Warn("AI_API_KEY not set, note summarization disabled")
	}
	noteSvc := service.NewNoteService(store, summarizer)

	files, err := storage.NewFromConfig(ctx, cfg.Storage)
	if err != nil {
		log.Error("storage setup failed", "error", err)
		os.Exit(1)
	}

	var limiter ratelimit.Limiter = ratelimit.NewMemoryLimiter()
	if cfg.RateLimit.RedisAddr != "" {
		limiter = ratelimit.NewRedisLimiter(redis.NewClient(&redis.Options{Addr: cfg.RateLimit.RedisAddr}), "ratelimit")
	}
	rateLimit, err := strconv.Atoi(cfg.RateLimit.Limit)
	if err != nil || rateLimit <= 0 {
		log.Error("invalid RATE_LIMIT", "value", cfg.RateLimit.Limit)
		os.Exit(1)
	}
	rateWindow, err := time.ParseDuration(cfg.RateLimit.Window)
	if err != nil {
		log.Error("invalid RATE_WINDOW", "value", cfg.RateLimit.Window)
		os.Exit(1)
	}

	authHandler := handler.NewAuthHandler(authSvc, files)
	noteHandler := handler.NewNoteHandler(noteSvc)

	router := gin.Default()
	router.Use(handler.CORSMiddleware(strings.Split(cfg.Server.CORSOrigins, ","), true))
	router.Use(handler.RateLimit(limiter, rateLimit, rateWindow))

	router.GET("/health", handler.Health)
	router.GET("/openapi.json", handler.OpenAPIDoc)

	auth := router.Group("/api/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refreshtoken", handler.RefreshGuard(authSvc), authHandler.Refresh)
		auth.PATCH("/uploadProfilePic", handler.Authentication(authSvc), authHandler.UploadProfilePicture)
		auth.POST("/signOut", handler.Authentication(authSvc), handler.RefreshGuard(authSvc), authHandler.SignOut)
		auth.POST("/sendForgetPasswordOtp", authHandler.ForgotPassword)
		auth.PUT("/resetPassword", authHandler.ResetPassword)
	}

	notes := router.Group("/api/notes", handler.Authentication(authSvc), handler.RequireRoles(model.RoleUser, model.RoleAdmin))
	{
		notes.POST("", noteHandler.Create)
		notes.GET("", noteHandler.List)
		notes.DELETE("/:noteId", noteHandler.Delete)
		notes.POST("/:noteId/summarize", noteHandler.Summarize)
	}

	log.Info("server starting", "port", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
