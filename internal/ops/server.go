// Package ops serves the operator endpoints: health, Prometheus metrics and runtime denylist administration.
package ops

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklahomer/go-kasumi/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bagcord/bagcord-discord/internal/security"
)

const shutdownTimeout = 5 * time.Second

// Server is the operator HTTP server.
type Server struct {
	addr       string
	adminToken string
	denylist   *security.Denylist
	gatherer   prometheus.Gatherer
	engine     *gin.Engine
}

// Option customizes a Server.
type Option func(*Server)

// WithAdminToken enables the denylist routes behind "Authorization: Bearer <token>".
// Without a token the routes are not mounted.
func WithAdminToken(token string) Option {
	return func(s *Server) {
		s.adminToken = token
	}
}

// WithGatherer sets the registry exposed on /metrics.
func WithGatherer(gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = gatherer
	}
}

// NewServer creates a Server listening on addr once Run is called.
func NewServer(addr string, denylist *security.Denylist, options ...Option) *Server {
	s := &Server{
		addr:     addr,
		denylist: denylist,
		gatherer: prometheus.DefaultGatherer,
	}

	for _, opt := range options {
		opt(s)
	}

	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	engine := gin.New()
	engine.Use(accessLog(), gin.Recovery())
	engine.GET("/healthz", s.handleHealthz)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	if s.adminToken != "" {
		admin := engine.Group("/denylist", s.requireAdmin())
		admin.GET("", s.handleListDenylist)
		admin.PUT("/:mint", s.handleDeny)
		admin.DELETE("/:mint", s.handleAllow)
	}

	return engine
}

// Handler returns the router. Useful for tests and for mounting elsewhere.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Operator server listening on %s.", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		logger.Debugf("%s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(started))
	}
}

func (s *Server) requireAdmin() gin.HandlerFunc {
	expected := []byte("Bearer " + s.adminToken)
	return func(c *gin.Context) {
		given := []byte(strings.TrimSpace(c.GetHeader("Authorization")))
		if subtle.ConstantTimeCompare(given, expected) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleListDenylist(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"mints": s.denylist.List()})
}

func (s *Server) handleDeny(c *gin.Context) {
	mint := c.Param("mint")
	if !security.IsValidAddress(mint) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid mint address"})
		return
	}

	if !s.denylist.Add(mint) {
		c.JSON(http.StatusOK, gin.H{"mint": mint, "changed": false})
		return
	}

	logger.Infof("Denied token %s.", mint)
	c.JSON(http.StatusCreated, gin.H{"mint": mint, "changed": true})
}

func (s *Server) handleAllow(c *gin.Context) {
	mint := c.Param("mint")
	if !security.IsValidAddress(mint) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid mint address"})
		return
	}

	if !s.denylist.Remove(mint) {
		c.JSON(http.StatusNotFound, gin.H{"error": "mint is not denied"})
		return
	}

	logger.Infof("Allowed token %s.", mint)
	c.JSON(http.StatusOK, gin.H{"mint": mint, "changed": true})
}
