package server

import (
	"net/http"
	"time"

	"github.com/danmuck/pixelstream/internal/protocol"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) RegisterRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.Appeared).String(),
			"service": s.ID,
			"version": "0.0.1",
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/ready", func(c *gin.Context) {
		ready := len(s.loops) > 0
		status := http.StatusOK
		if !ready {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"ready":   ready,
			"uptime":  time.Since(s.Appeared).String(),
			"service": s.ID,
		})
	})

	s.router.GET("/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"width":     s.surface.Width(),
			"height":    s.surface.Height(),
			"layers":    s.surface.Layers(),
			"listeners": s.LoopStatuses(),
		})
	})

	s.router.GET("/snapshot.ppm", func(c *gin.Context) {
		s.lock.Lock()
		snap := s.surface.Snapshot()
		s.lock.Unlock()

		data, err := protocol.Encode(protocol.Header{Width: snap.Width(), Height: snap.Height()}, snap.Pix())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Data(http.StatusOK, "image/x-portable-pixmap", data)
	})
}
