package devserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const ctxAccountKey = "devserver_account"

// RequireBearer admits requests carrying a valid token for an existing
// account whose token version still matches.
func RequireBearer(tokens TokenService, repo *Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" || !strings.HasPrefix(strings.ToLower(h), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
			return
		}

		raw := strings.TrimSpace(h[len("Bearer "):])
		claims, err := tokens.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Could not validate credentials"})
			return
		}

		acct, err := repo.GetByUsername(c.Request.Context(), claims.Username)
		if err != nil || acct == nil || acct.TokenVersion != claims.TokenVersion {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Could not validate credentials"})
			return
		}

		c.Set(ctxAccountKey, acct)
		c.Next()
	}
}

func currentAccount(c *gin.Context) *Account {
	v, ok := c.Get(ctxAccountKey)
	if !ok {
		return nil
	}
	acct, _ := v.(*Account)
	return acct
}
