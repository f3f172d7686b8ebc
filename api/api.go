package api

import (
	"context"
	"io"
	"net/http"

	"github.com/EPecherkin/ai-rm/chatter"
	"github.com/EPecherkin/ai-rm/deps"
	"github.com/EPecherkin/ai-rm/logger"
	"github.com/gin-gonic/gin"
)

// Limits bound how often one client may open sessions and submit messages.
// The two are counted separately.
type Limits struct {
	Rate  float64
	Burst int
}

type Api struct {
	chatter *chatter.Chatter
	creates *limiters
	submits *limiters

	deps deps.Deps
}

func NewApi(chatter *chatter.Chatter, limits Limits, deps deps.Deps) *Api {
	deps.Logger = deps.Logger.With(logger.CALLER, "api")
	deps.Logger.Debug("Creating api")
	return &Api{chatter: chatter, creates: newLimiters(limits), submits: newLimiters(limits), deps: deps}
}

// Router builds the gin engine. ctx bounds the background work of sessions,
// which outlives the request that created them.
func (api *Api) Router(ctx context.Context) *gin.Engine {
	router := gin.New()
	router.Use(api.accessLog())
	router.Use(gin.CustomRecoveryWithWriter(io.Discard, api.recover))

	router.Any("/api/config", api.handleConfig)
	// Any covers the standard methods only; the rest land in NoRoute
	router.NoRoute(api.noRoute)

	sessions := router.Group("/api/sessions")
	sessions.POST("", api.createSession(ctx))
	sessions.GET("/:id", api.getSession)
	sessions.POST("/:id/messages", api.submitMessage)
	sessions.POST("/:id/reset", api.resetSession(ctx))

	api.mountStatic(router)
	return router
}

func (api *Api) noRoute(c *gin.Context) {
	if c.Request.URL.Path == "/api/config" {
		api.handleConfig(c)
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
}

func (api *Api) recover(c *gin.Context, err any) {
	api.deps.Logger.With(logger.ERROR, err).With("path", c.Request.URL.Path).Error("panic in handler")
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
