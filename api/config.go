package api

import (
	"net/http"

	"github.com/EPecherkin/ai-rm/config"
	"github.com/gin-gonic/gin"
)

// handleConfig serves the credentials document. Only GET and the OPTIONS
// preflight are allowed.
func (api *Api) handleConfig(c *gin.Context) {
	cors(c)
	switch c.Request.Method {
	case http.MethodOptions:
		c.Status(http.StatusOK)
		return
	case http.MethodGet:
	default:
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
		return
	}

	doc := config.Expose()
	api.deps.Logger.
		With("openai_present", config.OpenAiApiKey() != "").
		With("openai_length", len(doc.OpenAI)).
		With("sonar_present", config.SonarApiKey() != "").
		With("sonar_length", len(doc.Sonar)).
		With("gemini_present", doc.Gemini != "").
		Info("serving config")
	c.JSON(http.StatusOK, doc)
}
