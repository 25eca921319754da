package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hilthontt/townhall/domain/model"
	"github.com/hilthontt/townhall/infrastructure/auth"
	"github.com/hilthontt/townhall/infrastructure/logger"
	"go.uber.org/zap"
)

const (
	IdentityContextKey = "identity"
)

type TokenVerifier interface {
	Verify(token string) (*model.Identity, error)
}

// Authenticate places the caller's identity in the context when a bearer
// token is present. Requests without one continue anonymously; a token that
// does not verify is rejected.
func Authenticate(verifier TokenVerifier, logger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.BearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.Next()
			return
		}

		identity, err := verifier.Verify(token)
		if err != nil {
			logger.Debug("rejected bearer token", zap.Error(err), zap.String("ip", c.ClientIP()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": err.Error(),
			})
			return
		}

		c.Set(IdentityContextKey, identity)
		c.Next()
	}
}

// RequireRole is the only permission check of the HTTP surface. With no
// roles given any authenticated caller passes.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := GetIdentityFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": auth.ErrMissingToken.Error(),
			})
			return
		}

		if len(roles) > 0 && !identity.HasRole(roles...) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "your role does not allow this operation",
			})
			return
		}

		c.Next()
	}
}

func GetIdentityFromContext(c *gin.Context) (*model.Identity, bool) {
	value, exists := c.Get(IdentityContextKey)
	if !exists {
		return nil, false
	}

	identity, ok := value.(*model.Identity)
	return identity, ok
}
