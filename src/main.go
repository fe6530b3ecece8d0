package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"path"
	"regexp"
	"time"

	"standup/src/boot"
	"standup/src/config"
	"standup/src/controllers"
	"standup/src/lib"
	awslib "standup/src/lib/aws"
	"standup/src/middlewares"
	"standup/src/store"
	"standup/src/types"
	"standup/src/utils"

	"github.com/covalenthq/lumberjack"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// server holds everything the routes need. It is built once in main.
type server struct {
	cfg      *config.Config
	secret   []byte
	teams    *controllers.TeamController
	users    *controllers.UserController
	statuses *controllers.UserStatusController
	records  *controllers.MeetingRecordController
	limiter  *middlewares.RateLimiter
	metrics  *middlewares.Metrics
	registry *prometheus.Registry
}

func newServer(cfg *config.Config, secret []byte, s store.Store, pictures controllers.Pictures, notifier controllers.Notifier) *server {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &server{
		cfg:      cfg,
		secret:   secret,
		teams:    controllers.NewTeamController(s, pictures, notifier),
		users:    controllers.NewUserController(s, pictures),
		statuses: controllers.NewUserStatusController(s),
		records:  controllers.NewMeetingRecordController(s, notifier),
		limiter:  middlewares.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		metrics:  middlewares.NewMetrics(registry),
		registry: registry,
	}
}

func setupRouter(srv *server) *gin.Engine {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := utils.RegisterValidators(v); err != nil {
			log.Fatalf("Failed to register validators: %s", err)
		}
	}

	router := gin.Default()
	router.HandleMethodNotAllowed = true
	router.NoMethod(notImplemented)
	router.Use(corsMiddleware(srv.cfg))
	router.Use(srv.metrics.Middleware())
	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, "ok")
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(srv.registry, promhttp.HandlerOpts{})))

	router = maintenanceModeMiddleware(router, srv.cfg.MaintenanceMode)
	router.Use(srv.limiter.Middleware())

	if srv.cfg.IsLocal() {
		devRoutes(router, srv.secret)
	}

	authorized := router.Group("/")
	authorized.Use(middlewares.AuthMiddleware(srv.secret))
	{
		authorized = teamHandlers(authorized, srv.teams)
		authorized = userHandlers(authorized, srv.users)
		authorized = userStatusHandlers(authorized, srv.statuses)
		authorized = meetingRecordHandlers(authorized, srv.records)
	}
	return router
}

func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	if cfg.IsLocal() {
		return cors.Default()
	}
	cc := cors.DefaultConfig()
	cc.AllowMethods = append(cc.AllowMethods, "GET", "POST", "PUT", "DELETE", "HEAD")
	cc.AllowHeaders = append(cc.AllowHeaders, "Origin", "Authorization")
	cc.AllowOriginFunc = func(origin string) bool {
		match, _ := regexp.MatchString(`(\w+.?)+\.amazonaws\.com$`, origin)
		if match {
			return true
		}
		if cfg.AppHost == "" {
			return false
		}
		match, _ = regexp.MatchString(regexp.QuoteMeta(cfg.AppHost), origin)
		return match
	}
	cc.AllowCredentials = true
	cc.AllowAllOrigins = false
	return cors.New(cc)
}

func maintenanceModeMiddleware(g *gin.Engine, enabled bool) *gin.Engine {
	g.Use(func(ctx *gin.Context) {
		if enabled {
			err := errors.New("server is under maintenance")
			log.Println(err.Error())
			ctx.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
	})
	return g
}

// devRoutes mints tokens for local testing. Production tokens come from the
// identity provider.
func devRoutes(g *gin.Engine, secret []byte) {
	g.POST("/dev/token", func(ctx *gin.Context) {
		var body types.TeamMemberRequestBody
		if err := ctx.ShouldBindJSON(&body); err != nil {
			respondError(ctx, utils.ValidationErrorFrom(err))
			return
		}
		token, err := middlewares.GenerateToken(secret, body.Email, 24*time.Hour)
		if err != nil {
			respondError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"token": token})
	})
}

func notImplemented(ctx *gin.Context) {
	ctx.JSON(http.StatusNotImplemented, gin.H{"error": "not implemented"})
}

// respondError writes err with the status its type maps to. Unexpected
// errors are logged and reported without detail.
func respondError(ctx *gin.Context, err error) {
	status := types.StatusCode(err)
	if status == http.StatusInternalServerError {
		log.Printf("Error on %s %s: %s\n", ctx.Request.Method, ctx.FullPath(), err.Error())
		ctx.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	body := gin.H{"error": err.Error()}
	var validationErr *types.ValidationError
	if errors.As(err, &validationErr) && len(validationErr.Fields) > 0 {
		body["fields"] = validationErr.Fields
	}
	ctx.JSON(status, body)
}

func bindUri(ctx *gin.Context, params any) bool {
	if err := ctx.ShouldBindUri(params); err != nil {
		respondError(ctx, utils.ValidationErrorFrom(err))
		return false
	}
	return true
}

func bindJSON(ctx *gin.Context, body any) bool {
	if err := ctx.ShouldBindJSON(body); err != nil {
		respondError(ctx, utils.ValidationErrorFrom(err))
		return false
	}
	return true
}

func initLogger(logDir string) {
	cwd, _ := os.Getwd()
	dir := path.Join(cwd, logDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("Could not create log directory %s: %s\n", dir, err.Error())
		return
	}
	gin.ForceConsoleColor()

	gin.DefaultWriter = io.MultiWriter(&lumberjack.Logger{
		Filename:   path.Join(dir, "api.log"),
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     30,
	}, os.Stdout)
	log.SetOutput(io.MultiWriter(&lumberjack.Logger{
		Filename:   path.Join(dir, "server.log"),
		MaxSize:    500,
		MaxBackups: 3,
		MaxAge:     30,
		Compress:   true,
	}, os.Stderr))
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %s", err)
	}
	initLogger(cfg.LogDir)
	if utils.IsProd(cfg.Env) {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	awsCfg, err := lib.LoadAWSConfig(ctx, cfg.AWSRoleARN)
	if err != nil {
		log.Fatalf("Failed to load AWS configuration: %s", err)
	}
	secret := cfg.JWTSecret
	if secret == "" {
		secret, err = lib.FetchSecret(ctx, awsCfg, cfg.JWTSecretARN)
		if err != nil {
			log.Fatalf("Failed to resolve JWT secret: %s", err)
		}
	}

	s, err := boot.InitStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize store: %s", err)
	}

	var pictures controllers.Pictures
	if cfg.AssetsBucket != "" {
		pictures = awslib.NewProfilePictures(awsCfg, cfg.AssetsBucket, cfg.DefaultUserPicture, cfg.DefaultTeamPicture, cfg.PresignTTL)
	} else {
		log.Println("S3_ASSETS_BUCKET is not set. Profile pictures are disabled")
	}
	var notifier controllers.Notifier
	if cfg.TeamEventsTopicARN != "" {
		notifier = awslib.NewTeamEventPublisher(awsCfg, cfg.TeamEventsTopicARN)
	} else {
		log.Println("SNS_TEAM_EVENTS_TOPIC_ARN is not set. Team events are not published")
	}

	srv := newServer(cfg, []byte(secret), s, pictures, notifier)

	sched, err := boot.InitScheduler(cfg, s, srv.limiter)
	if err != nil {
		log.Fatalf("Failed to start scheduler: %s", err)
	}
	defer boot.StopScheduler(sched)

	router := setupRouter(srv)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %s", err)
	}
}
