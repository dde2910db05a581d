// Package web provides the HTTP liveness endpoint.
package web

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// Server serves the unauthenticated liveness endpoints.
type Server struct {
	engine *gin.Engine
	store  Pinger
	port   int
}

// New creates the HTTP server with its routes registered.
func New(store Pinger, port int) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine: engine,
		store:  store,
		port:   port,
	}

	engine.GET("/", s.root)
	engine.GET("/health", s.health)
	engine.GET("/ready", s.ready)

	return s
}

// Run starts the listener and blocks.
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%d", s.port)
	log.Info().Str("addr", addr).Msg("Starting HTTP server")
	return s.engine.Run(addr)
}

// root confirms the bot is online. Used for liveness probing only.
func (s *Server) root(c *gin.Context) {
	c.String(200, "🚀 Naija Utility Bot is online")
}

func (s *Server) health(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}

// ready checks the store connection.
func (s *Server) ready(c *gin.Context) {
	if err := s.store.HealthCheck(c.Request.Context()); err != nil {
		log.Error().Err(err).Msg("Database not ready")
		c.JSON(503, gin.H{"status": "not ready"})
		return
	}
	c.JSON(200, gin.H{"status": "ready"})
}
