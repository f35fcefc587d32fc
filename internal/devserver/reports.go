package devserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func (s *Server) createReport(c *gin.Context) {
	var in NewReport
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "invalid json"})
		return
	}
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" || in.Type == "" || in.Description == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "username, type and description are required"})
		return
	}

	total, err := s.Repo.AddReport(c.Request.Context(), in)
	if err != nil {
		if errors.Is(err, ErrUnknownUser) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "User not found"})
			return
		}
		s.Logger.Printf("[devserver] add report for %s: %v", in.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "create report failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": in.Username, "total_reports": total})
}

func (s *Server) reportSummary(c *gin.Context) {
	acct, err := s.Repo.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil || acct == nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "User not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": acct.Username, "total_reports": acct.Reports})
}

func (s *Server) reportList(c *gin.Context) {
	ctx := c.Request.Context()
	acct, err := s.Repo.GetByUsername(ctx, c.Param("username"))
	if err != nil || acct == nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "User not found"})
		return
	}
	list, err := s.Repo.ListReports(ctx, acct.Username)
	if err != nil {
		s.Logger.Printf("[devserver] list reports for %s: %v", acct.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "list reports failed"})
		return
	}
	c.JSON(http.StatusOK, list)
}
