// Package devserver is a local stand-in for the PhillySafe auth and
// simulated crime backends. It speaks the same wire contracts so the
// client and CLI can run without the hosted services.
package devserver

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type Server struct {
	Repo      *Repo
	Tokens    TokenService
	Generator *Generator

	// FixturePath, when set, is served verbatim at GET /crime.
	FixturePath string
	// TokenOnRegister makes /register answer with an access token. The
	// hosted service does not, which forces clients through a login.
	TokenOnRegister bool
	BcryptCost      int
	Logger          *log.Logger
}

func New(repo *Repo, tokens TokenService, gen *Generator, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		Repo:       repo,
		Tokens:     tokens,
		Generator:  gen,
		BcryptCost: bcrypt.DefaultCost,
		Logger:     logger,
	}
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	s.RegisterRoutes(r)
	return r
}

func (s *Server) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/register", s.register)
	r.POST("/login", s.login)
	r.GET("/profile", RequireBearer(s.Tokens, s.Repo), s.profile)
	r.POST("/logout", RequireBearer(s.Tokens, s.Repo), s.logout)

	r.GET("/crime", s.listCrime)
	r.GET("/crime/filtered", s.filteredCrime)

	r.POST("/reports", s.createReport)
	r.GET("/reports/:username", s.reportSummary)
	r.GET("/reports/:username/all", s.reportList)
}
