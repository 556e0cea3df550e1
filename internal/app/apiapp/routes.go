package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Taniishaaa/censor-pro/internal/config"
	"github.com/Taniishaaa/censor-pro/internal/domain/enums"
	authsvc "github.com/Taniishaaa/censor-pro/internal/services/auth"
	contentsvc "github.com/Taniishaaa/censor-pro/internal/services/content"
	modsvc "github.com/Taniishaaa/censor-pro/internal/services/moderation"
	ratesvc "github.com/Taniishaaa/censor-pro/internal/services/rate"
	"github.com/Taniishaaa/censor-pro/internal/transport/http/handlers"
)

type Dependencies struct {
	AuthService       *authsvc.Service
	GoogleOAuth       *authsvc.GoogleOAuth
	JWTManager        *authsvc.JWTManager
	ContentService    *contentsvc.Service
	ModerationService *modsvc.Service
	RateLimiter       *ratesvc.Limiter
	PostgresPinger    handlers.Pinger
	RedisPinger       handlers.Pinger
	Logger            *zap.Logger
	Config            config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	authHandler := handlers.NewAuthHandler(deps.AuthService, deps.GoogleOAuth, deps.Config.Frontend.BaseURL)
	contentHandler := handlers.NewContentHandler(deps.ContentService)
	moderationHandler := handlers.NewModerationHandler(deps.ModerationService, deps.RateLimiter)
	adminHandler := handlers.NewAdminHandler(deps.ModerationService)
	healthHandler := handlers.NewHealthHandler(deps.PostgresPinger, deps.RedisPinger)

	authMW := AuthMiddleware(deps.JWTManager, deps.Logger)
	adminMW := RequireRole(enums.RoleAdmin)

	r.Get("/healthz", healthHandler.Handle)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Get("/google", authHandler.Google)
		r.Get("/google/callback", authHandler.GoogleCallback)

		r.Group(func(r chi.Router) {
			r.Use(authMW)
			r.Get("/me", authHandler.Me)
			r.Post("/logout", authHandler.Logout)
		})
	})

	r.Route("/content", func(r chi.Router) {
		r.Use(authMW)

		r.Post("/upload", contentHandler.Upload)
		r.Get("/my-content", contentHandler.MyContent)
		r.Post("/moderate/text", moderationHandler.ModerateText)
		r.Post("/moderate/ai/{id}", moderationHandler.AIResolve)

		r.Route("/admin", func(r chi.Router) {
			r.Use(adminMW)
			r.Get("/queue", adminHandler.Queue)
			r.Get("/stats", adminHandler.Stats)
			r.Post("/review/{id}", adminHandler.Review)
		})
	})
}
