package devserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// register takes the same form fields as the production auth service.
func (s *Server) register(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")
	displayName := strings.TrimSpace(c.PostForm("display_name"))

	if len(username) < 3 || len(username) > 30 {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "username must be 3-30 chars"})
		return
	}
	if password == "" || len(password) > 72 {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "password must be 1-72 chars"})
		return
	}
	if displayName == "" {
		displayName = username
	}

	ctx := c.Request.Context()
	if a, _ := s.Repo.GetByUsername(ctx, username); a != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Username already taken"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.BcryptCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "hash failed"})
		return
	}

	acct, err := s.Repo.CreateAccount(ctx, Account{
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: string(hash),
	})
	if err != nil {
		s.Logger.Printf("[devserver] register %s: %v", username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "create user failed"})
		return
	}

	resp := gin.H{
		"message":      "User registered successfully",
		"id":           acct.ID,
		"username":     acct.Username,
		"display_name": acct.DisplayName,
	}
	if s.TokenOnRegister {
		token, _, err := s.Tokens.Sign(acct)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "token failed"})
			return
		}
		resp["access_token"] = token
		resp["token_type"] = "bearer"
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) login(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")
	if username == "" || password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "username and password required"})
		return
	}

	acct, err := s.Repo.GetByUsername(c.Request.Context(), username)
	if err != nil || acct == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Incorrect username or password"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Incorrect username or password"})
		return
	}

	token, _, err := s.Tokens.Sign(acct)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "token failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}

func (s *Server) profile(c *gin.Context) {
	acct := currentAccount(c)
	if acct == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":                  acct.ID,
		"username":            acct.Username,
		"display_name":        acct.DisplayName,
		"total_contributions": acct.Reports,
		"created_at":          acct.CreatedAt.UTC().Format(time.RFC3339),
	})
}

// logout invalidates every outstanding token of the caller.
func (s *Server) logout(c *gin.Context) {
	acct := currentAccount(c)
	if acct == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
		return
	}
	if err := s.Repo.RevokeTokens(c.Request.Context(), acct.ID); err != nil {
		s.Logger.Printf("[devserver] logout %s: %v", acct.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "logout failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}
