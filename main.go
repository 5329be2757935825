package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"repairhub-server/apperr"
	"repairhub-server/config"
	"repairhub-server/database"
	"repairhub-server/jobs"
	"repairhub-server/middleware"
	"repairhub-server/notify"
	"repairhub-server/repository"
	"repairhub-server/routes"
	"repairhub-server/services"
	"repairhub-server/storage"
	"repairhub-server/telemetry"
	"repairhub-server/utils"
	ws "repairhub-server/websocket"
)

const maxRequestBody = 30 << 20

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := config.Load()
	shutdownTelemetry := telemetry.Setup(cfg.Telemetry)

	if err := database.Initialize(cfg); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	db := database.DB

	catalogRepo := repository.NewCatalogRepository(db)
	localityRepo := repository.NewLocalityRepository(db)
	agentRepo := repository.NewAgentRepository(db)
	appRepo := repository.NewApplicationRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	userRepo := repository.NewUserRepository(db)
	uploadRepo := repository.NewUploadRepository(db)
	pushRepo := repository.NewPushTokenRepository(db)

	var objects services.ObjectStorage = storage.Disabled{}
	if cld, err := storage.NewCloudinary(cfg.Cloudinary); err != nil {
		log.Printf("⚠️ Image uploads disabled: %v", err)
	} else {
		objects = cld
	}

	var pusher notify.Pusher
	if cfg.Firebase.CredentialsFile != "" {
		fcm, err := notify.NewFCM(context.Background(), cfg.Firebase.CredentialsFile)
		if err != nil {
			log.Printf("⚠️ Push notifications disabled: %v", err)
		} else {
			pusher = fcm
		}
	} else {
		log.Println("⚠️ FIREBASE_CREDENTIALS_FILE not set, push notifications disabled")
	}

	tokens := services.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpiryHours)
	authService := services.NewAuthService(userRepo, localityRepo, tokens)
	agentService := services.NewAgentService(agentRepo, localityRepo, cfg.Agents.PresenceTimeout)
	uploadService := services.NewUploadService(objects, uploadRepo, cfg.Cloudinary.Folder, cfg.Booking.MaxImages, cfg.Uploads.OrphanTTL)

	// Live socket hub; agent sockets double as presence heartbeats.
	hub := ws.NewHub()
	hub.OnHeartbeat = func(userID uint) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := agentService.Heartbeat(ctx, userID); err != nil && apperr.KindOf(err) != apperr.KindNotFound {
			log.Printf("⚠️ Heartbeat for user %d: %v", userID, err)
		}
	}
	go hub.Run()

	dispatcher := notify.NewDispatcher(hub, pusher, pushRepo)

	appService := services.NewApplicationService(appRepo, agentRepo, localityRepo, userRepo, uploadRepo, authService)
	if cfg.Geocoding.Enabled {
		appService = appService.WithGeocoder(utils.NewNominatimGeocoder(cfg.Geocoding.CountryCode))
	}

	handler := &routes.Handler{
		Auth:     authService,
		Catalog:  services.NewCatalogService(catalogRepo),
		Locality: services.NewLocalityService(localityRepo),
		Agents:   agentService,
		Apps:     appService,
		Bookings: services.NewBookingService(bookingRepo, catalogRepo, localityRepo, agentRepo, userRepo, uploadRepo, dispatcher,
			services.BookingSettings{
				BasePrice:  cfg.Booking.BasePrice,
				MaxImages:  cfg.Booking.MaxImages,
				WindowDays: cfg.Booking.ScheduleWindowDays,
				Location:   cfg.Location(),
			}),
		Lifecycle: services.NewLifecycleService(bookingRepo, agentRepo, dispatcher),
		Uploads:   uploadService,
		Reports:   services.NewReportService(bookingRepo, agentRepo, appRepo, userRepo),
		Push:      services.NewPushService(pushRepo),
		Hub:       hub,
	}

	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Disable automatic redirects for trailing slashes
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false
	router.MaxMultipartMemory = 8 << 20

	// Security headers (must be first)
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.InputValidationMiddleware(maxRequestBody))
	router.Use(middleware.RateLimitMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.CORS.AllowedOrigins))
	router.Use(middleware.AuditLogMiddleware())

	routes.RegisterRoutes(router, handler, middleware.NewAuth(tokens, userRepo))

	// Background jobs
	presenceJob := jobs.NewPresenceJob(agentService, middleware.Limiters(), time.Minute)
	presenceJob.Start()
	orphanJob := jobs.NewOrphanUploadJob(uploadService, cfg.Uploads.CleanupInterval)
	orphanJob.Start()

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Server.Port,
		Handler:           otelhttp.NewHandler(router, cfg.Telemetry.ServiceName),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("🚀 Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server:", err)
		}
	}()

	<-ctx.Done()
	log.Println("🛑 Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ HTTP shutdown: %v", err)
	}
	presenceJob.Stop()
	orphanJob.Stop()
	hub.Stop()
	dispatcher.Wait()
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		log.Printf("⚠️ Telemetry shutdown: %v", err)
	}
	log.Println("👋 Server stopped")
}
