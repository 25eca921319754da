package middlewares

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hilthontt/townhall/infrastructure/config"
)

// ForceHttps redirects plain requests to https. Requests already terminated
// by a proxy are recognised through X-Forwarded-Proto. 308 keeps the method
// and body of PATCH and POST calls.
func ForceHttps(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
			c.Next()
			return
		}

		host := c.Request.Host
		if cfg.Server.InternalPort != cfg.Server.ExternalPort {
			host = strings.Replace(host, fmt.Sprintf(":%s", cfg.Server.InternalPort), fmt.Sprintf(":%s", cfg.Server.ExternalPort), 1)
		}

		c.Redirect(http.StatusPermanentRedirect, "https://"+host+c.Request.URL.RequestURI())
		c.Abort()
	}
}
