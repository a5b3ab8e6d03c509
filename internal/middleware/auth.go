package middleware

import (
	"net/http"
	"strconv"

	"ticketpro/internal/model"

	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

// AuthRequired extracts the authenticated principal injected by the identity
// layer in front of this service. The core trusts these headers; credential
// verification is not its job.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := strconv.Atoi(c.GetHeader("X-User-ID"))
		if err != nil || userID <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Missing or invalid identity",
			})
			return
		}

		// An absent role header means a plain user. Anything else must be a
		// role this service knows, otherwise the identity layer is confused
		// and the request cannot be trusted.
		role := model.RoleUser
		if header := c.GetHeader("X-User-Role"); header != "" {
			role = model.Role(header)
			if !role.IsValid() {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": "Missing or invalid identity",
				})
				return
			}
		}

		c.Set(principalKey, model.Principal{ID: userID, Role: role})
		c.Next()
	}
}

// Principal returns the authenticated caller stored by AuthRequired.
func Principal(c *gin.Context) model.Principal {
	p, _ := c.Get(principalKey)
	principal, _ := p.(model.Principal)
	return principal
}
