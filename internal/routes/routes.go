package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/auth"
	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/config"
	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/middleware"
)

// Setup mounts every route under /api. A nil db disables the per-request
// transaction, which lets tests run against in-memory stores.
func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	tokens *auth.Issuer,
	resolver middleware.UserResolver,
	limiterStorage fiber.Storage,
	authHandler *handlers.AuthHandler,
	contactHandler *handlers.ContactHandler,
	userHandler *handlers.UserHandler,
	healthHandler *handlers.HealthHandler,
) {
	api := app.Group("/api")

	// Health (outside any transaction)
	api.Get("/healthchecker", healthHandler.Check)

	var uow []fiber.Handler
	if db != nil {
		uow = append(uow, middleware.UnitOfWork(db))
	}
	protected := append(append([]fiber.Handler{}, uow...),
		middleware.JWTProtected(tokens),
		middleware.RequireUser(resolver),
	)

	// Auth (public)
	authGroup := api.Group("/auth", uow...)
	authGroup.Post("/signup", authHandler.Signup)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Get("/refresh_token", authHandler.Refresh)
	authGroup.Get("/confirmed_email/:token", authHandler.ConfirmEmail)
	authGroup.Post("/request_email", authHandler.RequestEmail)

	// Contacts (owner scoped)
	contacts := api.Group("/contacts", protected...)
	contacts.Get("/", contactHandler.List)
	contacts.Get("/:id", contactHandler.Get)
	contacts.Post("/", contactHandler.Create)
	contacts.Put("/:id", contactHandler.Update)
	contacts.Delete("/:id", contactHandler.Delete)

	// Users (rate limited per client IP)
	users := api.Group("/users", append([]fiber.Handler{middleware.UsersRateLimit(cfg, limiterStorage)}, protected...)...)
	users.Get("/me", userHandler.Me)
	users.Patch("/avatar", userHandler.UpdateAvatar)
}
