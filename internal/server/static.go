package server

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// mountStatic serves the compiled portfolio frontend. Unknown /api/ paths
// always answer with JSON; other unknown paths fall back to index.html so
// client-side routes survive a reload.
func (s *Server) mountStatic() {
	index := s.resolveIndex()

	s.engine.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") || index == "" {
			c.JSON(http.StatusNotFound, gin.H{"error": "endpoint not found"})
			return
		}
		c.File(index)
	})
	if index == "" {
		return
	}

	s.engine.GET("/", func(c *gin.Context) { c.File(index) })
	for _, dir := range []string{"assets", "images"} {
		path := filepath.Join(s.staticDir, dir)
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			s.engine.StaticFS("/"+dir, gin.Dir(path, false))
		}
	}
	for _, name := range []string{"favicon.ico", "robots.txt"} {
		path := filepath.Join(s.staticDir, name)
		if _, err := os.Stat(path); err == nil {
			s.engine.StaticFile("/"+name, path)
		}
	}
}

func (s *Server) resolveIndex() string {
	if s.staticDir == "" {
		s.logger.Info("static directory not configured; serving API only")
		return ""
	}
	index := filepath.Join(s.staticDir, "index.html")
	if _, err := os.Stat(index); err != nil {
		s.logger.Warn("frontend not found", slog.String("path", index), slog.String("error", err.Error()))
		return ""
	}
	return index
}
