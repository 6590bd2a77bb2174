// Package compressor реализует gzip сжатие запросов и ответов.
package compressor

import (
	"compress/gzip"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// compressible типы контента, которые имеет смысл сжимать
func compressible(contentType string) bool {
	return strings.Contains(contentType, "application/json") ||
		strings.Contains(contentType, "text/html") ||
		strings.Contains(contentType, "text/plain")
}

type gzipWriter struct {
	gin.ResponseWriter
	writer     *gzip.Writer
	compressed bool
}

func (g *gzipWriter) Write(b []byte) (int, error) {
	if compressible(g.Header().Get("Content-Type")) {
		if !g.compressed {
			g.Header().Set("Content-Encoding", "gzip")
			g.Header().Del("Content-Length")
			g.compressed = true
		}
		return g.writer.Write(b)
	}
	return g.ResponseWriter.Write(b)
}

func (g *gzipWriter) Close() error {
	if g.compressed {
		return g.writer.Close()
	}
	return nil
}

// Compresser распаковывает сжатые тела запросов и сжимает ответы,
// если клиент прислал Accept-Encoding: gzip
func Compresser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.Contains(strings.ToLower(c.Request.Header.Get("Content-Encoding")), "gzip") {
			reader, err := gzip.NewReader(c.Request.Body)
			if err != nil {
				c.String(http.StatusBadRequest, "Не удалось распаковать данные")
				return
			}
			c.Request.Body = reader
			defer reader.Close()
		}

		if strings.Contains(strings.ToLower(c.Request.Header.Get("Accept-Encoding")), "gzip") {
			gz := &gzipWriter{
				ResponseWriter: c.Writer,
				writer:         gzip.NewWriter(c.Writer),
			}
			c.Writer = gz
			defer gz.Close()
		}

		c.Next()
	}
}
