package server

import (
	"context"
	_ "embed"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/Sternrassler/room-tour/pkg/room"
	"github.com/gin-gonic/gin"
)

var (
	//go:embed web/index.html
	indexHTML string

	//go:embed web/tour.js
	tourJS []byte

	indexTemplate = template.Must(template.New("index.html").Parse(indexHTML))
)

// handleIndex serves the tour page with the catalog's room range.
func (s *Server) handleIndex(c *gin.Context) {
	c.Header("Cache-Control", "no-cache")
	c.HTML(http.StatusOK, "index.html", room.NewTour(s.catalog.Len()))
}

// handleTour serves GET /rooms.
func (s *Server) handleTour(c *gin.Context) {
	c.JSON(http.StatusOK, room.NewTour(s.catalog.Len()))
}

// handleScript serves the page navigator script.
func (s *Server) handleScript(c *gin.Context) {
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, "text/javascript; charset=utf-8", tourJS)
}

// handleRoom serves GET /room/:id with ETag revalidation.
func (s *Server) handleRoom(c *gin.Context) {
	idStr := c.Param("id")
	index, err := strconv.Atoi(idStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "room index must be an integer", "index": idStr})
		return
	}

	payload, ok := s.rooms[index]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "room not found",
			"index": index,
			"min":   room.MinIndex,
			"max":   s.catalog.Len(),
		})
		return
	}

	roomsServedTotal.WithLabelValues(strconv.Itoa(index)).Inc()

	c.Header("ETag", payload.etag)
	c.Header("Cache-Control", s.cacheControl)

	if match := c.GetHeader("If-None-Match"); match != "" && match == payload.etag {
		c.Status(http.StatusNotModified)
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", payload.body)
}

// handleHealth reports liveness.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleReady reports whether the server's dependencies are reachable.
func (s *Server) handleReady(c *gin.Context) {
	checks := gin.H{"catalog": s.catalog.Len()}

	if s.redis != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := s.redis.Ping(ctx).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("readiness check: redis unreachable")
			checks["redis"] = err.Error()
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "checks": checks})
			return
		}
		checks["redis"] = "ok"
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready", "checks": checks})
}
