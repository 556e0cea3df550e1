package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Taniishaaa/censor-pro/internal/config"
	"github.com/Taniishaaa/censor-pro/internal/infra/httpclient"
	s3infra "github.com/Taniishaaa/censor-pro/internal/infra/s3"
	pgrepo "github.com/Taniishaaa/censor-pro/internal/repo/postgres"
	redrepo "github.com/Taniishaaa/censor-pro/internal/repo/redis"
	authsvc "github.com/Taniishaaa/censor-pro/internal/services/auth"
	contentsvc "github.com/Taniishaaa/censor-pro/internal/services/content"
	modsvc "github.com/Taniishaaa/censor-pro/internal/services/moderation"
	ratesvc "github.com/Taniishaaa/censor-pro/internal/services/rate"
	"github.com/Taniishaaa/censor-pro/internal/transport/http/handlers"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	s3         *minio.Client
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	rateRepo := redrepo.NewRateRepo(redisClient)
	userRepo := pgrepo.NewUserRepo(pool)
	contentRepo := pgrepo.NewContentRepo(pool)

	var s3Client *minio.Client
	if c, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, continuing in degraded mode", zap.Error(err))
	} else {
		s3Client = c
	}

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authService := authsvc.NewService(userRepo, jwtManager)
	googleOAuth := authsvc.NewGoogleOAuth(
		cfg.Auth.Google.ClientID,
		cfg.Auth.Google.ClientSecret,
		cfg.Auth.Google.RedirectURL,
		userRepo,
		jwtManager,
	)
	if !googleOAuth.IsConfigured() {
		log.Warn("google oauth is not configured, sign-in with google is disabled")
	}

	contentStorage := contentsvc.NewS3Storage(s3Client, cfg.S3.Bucket)
	contentService := contentsvc.NewService(contentRepo, contentStorage)

	providerClient := httpclient.New(cfg.Providers.Timeout)

	var textClassifier modsvc.TextClassifier
	if c, err := modsvc.NewHuggingFaceClassifier(providerClient, cfg.Providers.HuggingFace.ModelURL, cfg.Providers.HuggingFace.APIKey); err != nil {
		log.Warn("text classifier disabled", zap.Error(err))
	} else {
		textClassifier = c
	}

	var toxicityScorer modsvc.ToxicityScorer
	if c, err := modsvc.NewGradioScorer(providerClient, cfg.Providers.Gradio.SpaceURL); err != nil {
		log.Warn("toxicity scorer disabled", zap.Error(err))
	} else {
		toxicityScorer = c
	}

	var imageChecker modsvc.ImageChecker
	if c, err := modsvc.NewSightengineChecker(
		providerClient,
		cfg.Providers.Sightengine.Endpoint,
		cfg.Providers.Sightengine.APIUser,
		cfg.Providers.Sightengine.APISecret,
		cfg.Providers.Sightengine.Models,
	); err != nil {
		log.Warn("image checker disabled", zap.Error(err))
	} else {
		imageChecker = c
	}

	moderationService := modsvc.NewService(
		contentRepo,
		textClassifier,
		toxicityScorer,
		imageChecker,
		contentStorage,
		modsvc.NewNormalizer(nil),
	)

	rateLimiter := ratesvc.NewLimiter(
		rateRepo,
		cfg.Limits.ModerationPerMinute,
		cfg.Limits.ModerationPer10Seconds,
	)

	var postgresPinger handlers.Pinger
	if pool != nil {
		postgresPinger = pool
	}

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	RegisterRoutes(r, Dependencies{
		AuthService:       authService,
		GoogleOAuth:       googleOAuth,
		JWTManager:        jwtManager,
		ContentService:    contentService,
		ModerationService: moderationService,
		RateLimiter:       rateLimiter,
		PostgresPinger:    postgresPinger,
		RedisPinger:       redisPinger{client: redisClient},
		Logger:            log,
		Config:            cfg,
	})

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		s3:         s3Client,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}

type redisPinger struct {
	client *goredis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	if p.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	return p.client.Ping(ctx).Err()
}
