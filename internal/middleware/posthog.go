package middleware

import (
	"net/http"
	"strings"

	"github.com/SscSPs/budget_approval_app/internal/utils"
	"github.com/gin-gonic/gin"
)

// untrackedPaths are never reported to PostHog.
var untrackedPaths = map[string]bool{
	"/health": true,
}

// PosthogMiddleware reports successful authenticated API calls as PostHog events
// named after the route, e.g. "api_v1_budgets_:id_approve".
func PosthogMiddleware(client *utils.PosthogClientWrapper) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !client.IsInitialized() || untrackedPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		c.Next()

		if len(c.Errors) > 0 || c.Writer.Status() >= http.StatusBadRequest {
			return
		}
		userID, ok := GetUserIDFromContext(c)
		if !ok {
			return
		}
		eventName := strings.ReplaceAll(strings.TrimPrefix(c.FullPath(), "/"), "/", "_")
		if eventName == "" {
			return
		}

		props := map[string]any{
			"method":      c.Request.Method,
			"status_code": c.Writer.Status(),
		}
		if len(c.Params) > 0 {
			params := make(map[string]string, len(c.Params))
			for _, p := range c.Params {
				params[p.Key] = p.Value
			}
			props["params"] = params
		}
		client.Enqueue(userID, eventName, props)
	}
}

// PosthogEvent sends a custom event on behalf of the authenticated user.
func PosthogEvent(c *gin.Context, client *utils.PosthogClientWrapper, eventName string, properties map[string]any) {
	if !client.IsInitialized() {
		return
	}
	userID, ok := GetUserIDFromContext(c)
	if !ok {
		return
	}
	if properties == nil {
		properties = make(map[string]any)
	}
	properties["path"] = c.Request.URL.Path
	client.Enqueue(userID, eventName, properties)
}
