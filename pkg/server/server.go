// Package server exposes the relay over HTTP with gin.
package server

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	sloggin "github.com/gin-contrib/slog"
	"github.com/gin-gonic/gin"

	"github.com/go-training/oauth-relay/pkg/config"
	"github.com/go-training/oauth-relay/pkg/core"
	"github.com/go-training/oauth-relay/pkg/relay"
)

const (
	// ServiceName identifies the relay in the health response and the
	// confirmation page.
	ServiceName = "oauth-relay"
	// Version is reported by the health endpoint.
	Version = "1.0.0"
)

//go:embed confirm.html
var confirmFS embed.FS

// Server binds the correlation protocol to the HTTP surface.
type Server struct {
	cfg     config.Config
	service *relay.Service
	confirm *template.Template
}

// New creates a Server around the given protocol service.
func New(cfg config.Config, service *relay.Service) (*Server, error) {
	tmpl, err := template.ParseFS(confirmFS, "confirm.html")
	if err != nil {
		return nil, fmt.Errorf("parse confirmation template: %w", err)
	}
	return &Server{
		cfg:     cfg,
		service: service,
		confirm: tmpl,
	}, nil
}

// Router builds the gin engine with all routes and middleware attached.
// Route map:
//
//	POST /auth/authorize  -> {url, readKey}
//	GET  /auth/redirect   -> provider callback, HTML confirmation
//	POST /auth/poll       -> one-shot token bundle delivery
//	POST /auth/refresh    -> stateless refresh exchange
//	GET  /                -> health, no CORS
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(requestIDMiddleware())
	router.Use(sloggin.SetLogger())
	router.Use(corsMiddleware(s.cfg.PluginURI))
	router.Use(gin.CustomRecovery(recoveryHandler))

	auth := router.Group("/auth")
	auth.POST("/authorize", s.handleAuthorize)
	auth.GET("/redirect", s.handleRedirect)
	auth.POST("/poll", s.handlePoll)
	auth.POST("/refresh", s.handleRefresh)

	router.GET("/", s.handleHealth)
	router.NoRoute(func(c *gin.Context) {
		c.String(http.StatusNotFound, "not found")
	})

	return router
}

func (s *Server) handleAuthorize(c *gin.Context) {
	result, err := s.service.Initiate(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleRedirect(c *gin.Context) {
	code := c.Query("code")
	state := c.Query("state")

	if err := s.service.CompleteCallback(c.Request.Context(), code, state); err != nil {
		s.writeError(c, err)
		return
	}

	var page bytes.Buffer
	if err := s.confirm.Execute(&page, map[string]string{"ServiceName": ServiceName}); err != nil {
		s.writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page.Bytes())
}

func (s *Server) handlePoll(c *gin.Context) {
	readKey := c.Request.FormValue("readKey")

	bundle, err := s.service.Poll(c.Request.Context(), readKey)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", bundle)
}

func (s *Server) handleRefresh(c *gin.Context) {
	refreshToken := c.Request.FormValue("code")

	bundle, err := s.service.RefreshTokens(c.Request.Context(), refreshToken)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", bundle)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "%s %s up", ServiceName, Version)
}

// writeError maps a relay error to its HTTP response. Upstream failures pass
// the provider's status and body through unmodified; everything else gets a
// JSON error body. The client secret never appears in any of these paths.
func (s *Server) writeError(c *gin.Context, err error) {
	logger := core.LoggerFromCtx(c.Request.Context())

	var rerr *relay.Error
	if errors.As(err, &rerr) {
		switch rerr.Kind {
		case relay.KindNotFound:
			// Expected while the login is in flight; not worth a log line.
		case relay.KindUpstreamFailure:
			logger.Warn("upstream exchange failed", "status", rerr.Status)
			c.String(rerr.Status, rerr.Message)
			return
		default:
			logger.Warn("request failed", "status", rerr.Status, "error", rerr.Message)
		}
		c.JSON(rerr.Status, gin.H{"error": rerr.Message})
		return
	}

	logger.Error("unexpected failure", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
