package api

import (
	"time"

	"github.com/gin-gonic/gin"
)

// accessLog writes one JSON line per request through the api logger.
func (api *Api) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		lgr := api.deps.Logger.
			With("method", c.Request.Method).
			With("path", c.Request.URL.Path).
			With("status", c.Writer.Status()).
			With("duration_ms", time.Since(start).Milliseconds()).
			With("client_ip", c.ClientIP())
		if len(c.Errors) > 0 {
			lgr = lgr.With("errors", c.Errors.String())
		}
		lgr.Info("request handled")
	}
}

func cors(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	c.Header("Access-Control-Allow-Headers", "Content-Type")
}
