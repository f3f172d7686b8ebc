package api

import (
	"context"
	"net/http"

	"github.com/EPecherkin/ai-rm/chatter"
	"github.com/EPecherkin/ai-rm/logger"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

type submitRequest struct {
	Text string `json:"text"`
}

type resetRequest struct {
	Confirm bool `json:"confirm"`
}

func (api *Api) createSession(ctx context.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !api.creates.allow(c.ClientIP()) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}
		session := api.chatter.Open(ctx, nil)
		api.deps.Logger.With(logger.SESSION_ID, session.ID()).Info("session opened")
		c.JSON(http.StatusCreated, session.Snapshot())
	}
}

func (api *Api) getSession(c *gin.Context) {
	session, ok := api.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, session.Snapshot())
}

func (api *Api) submitMessage(c *gin.Context) {
	session, ok := api.session(c)
	if !ok {
		return
	}
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if !api.submits.allow(c.ClientIP()) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
		return
	}

	entry, err := session.Submit(c.Request.Context(), req.Text)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, entry)
	case errors.Is(err, chatter.ErrBusy), errors.Is(err, chatter.ErrNotReady),
		errors.Is(err, chatter.ErrEmptyMessage), errors.Is(err, chatter.ErrStale):
		c.JSON(http.StatusConflict, gin.H{"ignored": true, "reason": err.Error()})
	default:
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// resetSession requires {"confirm": true}; the opening script is replayed in
// the background.
func (api *Api) resetSession(ctx context.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := api.session(c)
		if !ok {
			return
		}
		var req resetRequest
		if err := c.ShouldBindJSON(&req); err != nil || !req.Confirm {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Reset requires confirmation"})
			return
		}
		if err := session.Reset(c.Request.Context()); err != nil {
			c.JSON(http.StatusConflict, gin.H{"ignored": true, "reason": err.Error()})
			return
		}
		go session.Play(ctx)
		c.JSON(http.StatusOK, session.Snapshot())
	}
}

func (api *Api) session(c *gin.Context) (*chatter.Session, bool) {
	session, err := api.chatter.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return nil, false
	}
	return session, true
}
