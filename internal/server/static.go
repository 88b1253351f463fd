package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// staticDirs are the frontend build folders served verbatim. Sounds holds the
// timer alert audio.
var staticDirs = []string{"assets", "sounds"}

// mountStatic serves the built board frontend when s.staticDir holds one.
// Unknown non-API paths fall back to index.html for client-side routing.
func (s *Server) mountStatic() {
	if s.staticDir == "" {
		s.logger.Info("no frontend directory configured, serving API only")
		return
	}

	index := filepath.Join(s.staticDir, "index.html")
	if !isFile(index) {
		s.logger.Warn("frontend build not found, serving API only", zap.String("index", index))
		return
	}

	s.engine.GET("/", func(c *gin.Context) { c.File(index) })
	s.engine.NoRoute(spaFallback(index))

	for _, name := range staticDirs {
		if dir := filepath.Join(s.staticDir, name); isDir(dir) {
			s.engine.StaticFS("/"+name, gin.Dir(dir, false))
		}
	}
	if icon := filepath.Join(s.staticDir, "favicon.ico"); isFile(icon) {
		s.engine.StaticFile("/favicon.ico", icon)
	}
	s.logger.Info("serving frontend", zap.String("dir", s.staticDir))
}

func spaFallback(index string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := c.Request.URL.Path
		if strings.HasPrefix(p, "/api/") || p == "/ws" {
			c.JSON(http.StatusNotFound, gin.H{"error": "endpoint not found"})
			return
		}
		c.File(index)
	}
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
