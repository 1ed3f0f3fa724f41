package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/projecthub/backend/internal/config"
	"github.com/projecthub/backend/internal/database"
	"github.com/projecthub/backend/internal/handlers"
	"github.com/projecthub/backend/internal/middleware"
	"github.com/projecthub/backend/internal/services"
	"github.com/projecthub/backend/internal/storage"
	"github.com/projecthub/backend/pkg/logger"
	"github.com/projecthub/backend/pkg/utils"
)

func main() {
	_ = godotenv.Load()
	logger.Init()

	cfg := config.Load()
	utils.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.ExpirationHours)

	db, err := database.Connect(cfg.DB, cfg.Seed)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	storageClient, err := storage.NewMinIOClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("minio initialization failed: %v", err)
	}
	if err := storageClient.EnsureBucket(context.Background()); err != nil {
		log.Fatalf("failed ensuring minio bucket: %v", err)
	}

	relationshipService := services.NewRelationshipService(db)
	treeService := services.NewTreeService(db, storageClient)
	membershipService := services.NewMembershipService(db)
	checkinService := services.NewCheckinService(db)
	activityService := services.NewActivityService(db)

	authHandler := handlers.NewAuthHandler(db)
	usersHandler := handlers.NewUsersHandler(db, storageClient)
	friendsHandler := handlers.NewFriendsHandler(relationshipService, activityService)
	projectsHandler := handlers.NewProjectsHandler(db, treeService, checkinService, membershipService, storageClient)
	filesHandler := handlers.NewFilesHandler(db, treeService, membershipService)
	checkinsHandler := handlers.NewCheckinsHandler(db, checkinService, membershipService, activityService)
	membersHandler := handlers.NewMembersHandler(db, membershipService, activityService)
	commentsHandler := handlers.NewCommentsHandler(db, membershipService, activityService)
	activitiesHandler := handlers.NewActivitiesHandler(db)

	authMiddleware := middleware.NewAuthMiddleware(db)

	app := fiber.New(fiber.Config{BodyLimit: cfg.Server.BodyLimitMB * 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS(cfg.Server.FrontendURL))
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", authHandler.Register)
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Get("/me", authMiddleware.RequireAuth, authHandler.Me)
	authRoutes.Put("/me", authMiddleware.RequireAuth, authHandler.UpdateMe)
	authRoutes.Put("/password", authMiddleware.RequireAuth, authHandler.ChangePassword)

	api.Get("/users/search", authMiddleware.RequireAuth, usersHandler.Search)
	api.Delete("/users/:id", authMiddleware.RequireAuth, usersHandler.Delete)

	userRoutes := api.Group("/users", authMiddleware.RequireAuth, middleware.AdminOnly)
	userRoutes.Get("/", usersHandler.List)
	userRoutes.Get("/:id", usersHandler.Get)
	userRoutes.Put("/:id", usersHandler.Update)

	friendRoutes := api.Group("/friends", authMiddleware.RequireAuth)
	friendRoutes.Get("/", friendsHandler.List)
	friendRoutes.Get("/requests", friendsHandler.ListRequests)
	friendRoutes.Post("/requests/:userId", friendsHandler.SendRequest)
	friendRoutes.Put("/requests/:id", friendsHandler.ResolveRequest)
	friendRoutes.Delete("/:userId", friendsHandler.Remove)

	projectRoutes := api.Group("/projects", authMiddleware.RequireAuth)
	projectRoutes.Post("/", projectsHandler.Create)
	projectRoutes.Get("/", projectsHandler.List)
	projectRoutes.Get("/:id", projectsHandler.Get)
	projectRoutes.Put("/:id", projectsHandler.Update)
	projectRoutes.Delete("/:id", projectsHandler.Delete)
	projectRoutes.Post("/:id/checkout", projectsHandler.Checkout)

	projectRoutes.Post("/:id/files/upload", filesHandler.Upload)
	projectRoutes.Post("/:id/files/folder", filesHandler.CreateFolder)
	projectRoutes.Get("/:id/files", filesHandler.List)
	projectRoutes.Get("/:id/files/:fileId/content", filesHandler.Download)
	projectRoutes.Get("/:id/files/:fileId", filesHandler.Get)
	projectRoutes.Put("/:id/files/:fileId", filesHandler.Update)
	projectRoutes.Delete("/:id/files/:fileId", filesHandler.Delete)

	projectRoutes.Post("/:id/checkins", checkinsHandler.Create)
	projectRoutes.Get("/:id/checkins", checkinsHandler.List)

	projectRoutes.Post("/:id/members", membersHandler.Invite)
	projectRoutes.Get("/:id/members", membersHandler.List)
	projectRoutes.Delete("/:id/members/:userId", membersHandler.Remove)

	projectRoutes.Post("/:id/comments", commentsHandler.Create)
	projectRoutes.Get("/:id/comments", commentsHandler.List)
	projectRoutes.Put("/:id/comments/:commentId", commentsHandler.Update)
	projectRoutes.Delete("/:id/comments/:commentId", commentsHandler.Delete)

	activityRoutes := api.Group("/activities", authMiddleware.RequireAuth)
	activityRoutes.Get("/", activitiesHandler.List)
	activityRoutes.Get("/unread-count", activitiesHandler.UnreadCount)
	activityRoutes.Put("/read-all", activitiesHandler.MarkAllRead)
	activityRoutes.Put("/:id/read", activitiesHandler.MarkRead)

	listenAddr := fmt.Sprintf(":%s", cfg.Server.Port)

	logger.Info("server_starting", map[string]interface{}{
		"port":          cfg.Server.Port,
		"address":       listenAddr,
		"body_limit_mb": cfg.Server.BodyLimitMB,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("shutting down server due to signal: %s", sig)
		shutdownDone := make(chan struct{})
		go func() {
			_ = app.Shutdown()
			close(shutdownDone)
		}()
		select {
		case <-shutdownDone:
		case <-time.After(10 * time.Second):
			log.Print("forced shutdown timeout reached")
		}
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	}
}
