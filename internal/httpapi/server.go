package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rollcall/internal/attendance"
	"rollcall/internal/auth"
	"rollcall/internal/config"
	"rollcall/internal/course"
	"rollcall/internal/httpmiddleware"
	"rollcall/internal/lesson"
	"rollcall/internal/queue"
	"rollcall/internal/store"
)

// Server wires the core services into a gin router. Status-code mapping for
// the core's failure conditions lives in errors.go; the services themselves
// know nothing about HTTP.
type Server struct {
	cfg     config.App
	users   *auth.UserStore
	courses *course.Registry
	lessons *lesson.Manager
	ledger  *attendance.Ledger
	q       queue.Queue
	db      *store.DB
	rds     *store.Redis
}

// New creates a server over the given services.
func New(cfg config.App, users *auth.UserStore, courses *course.Registry, lessons *lesson.Manager, ledger *attendance.Ledger, q queue.Queue, db *store.DB, rds *store.Redis) *Server {
	return &Server{
		cfg:     cfg,
		users:   users,
		courses: courses,
		lessons: lessons,
		ledger:  ledger,
		q:       q,
		db:      db,
		rds:     rds,
	}
}

// Router builds the gin engine with middleware and all routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewTokenBucket(s.cfg.RateLimitPerMin, s.cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", s.health)

	r.POST("/v1/auth/register", s.register)
	r.POST("/v1/auth/login", s.login)

	prof := r.Group("/v1", auth.RequireRole(s.cfg.JWTSigningKey, s.cfg.JWTIssuer, auth.RoleProfessor))
	prof.POST("/courses", s.createCourse)
	prof.GET("/courses", s.listCourses)
	prof.PUT("/courses/:id", s.editCourse)
	prof.DELETE("/courses/:id", s.deleteCourse)
	prof.GET("/courses/:id/subscribers", s.listSubscribers)
	prof.GET("/courses/:id/lessons", s.listLessons)
	prof.POST("/courses/:id/lessons", s.startLesson)
	prof.GET("/courses/:id/lessons/active", s.activeLesson)
	prof.DELETE("/courses/:id/lessons/active", s.terminateLesson)
	prof.GET("/courses/:id/attendances", s.listConfirmed)
	prof.GET("/lessons/:id/checkins", s.listCheckedIn)
	prof.GET("/lessons/:id/live", s.liveCheckins)
	prof.PUT("/lessons/:id/confirm", s.confirm)

	student := r.Group("/v1", auth.RequireRole(s.cfg.JWTSigningKey, s.cfg.JWTIssuer, auth.RoleStudent))
	student.POST("/courses/:id/subscription", s.subscribe)
	student.DELETE("/courses/:id/subscription", s.unsubscribe)
	student.POST("/checkins", s.checkIn)

	return r
}

func (s *Server) health(c *gin.Context) {
	redisHealthy := s.rds.Healthy(c.Request.Context())
	dbHealthy := s.db != nil && s.db.Client.PingContext(c.Request.Context()) == nil
	status := http.StatusOK
	if !redisHealthy || !dbHealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
}

// CORS middleware for browser requests.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware.
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
