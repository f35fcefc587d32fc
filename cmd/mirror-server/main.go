package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"phillysafe/internal/devserver"
)

func main() {
	_ = godotenv.Load()

	var (
		addr            = flag.String("addr", ":8001", "listen address")
		dbPath          = flag.String("db", "data/devserver.db", "account database path (:memory: for a throwaway one)")
		fixture         = flag.String("fixture", "", "serve this incident file at /crime instead of generated data")
		count           = flag.Int("count", 500, "generated incidents per request")
		seed            = flag.Uint64("seed", uint64(time.Now().UnixNano()), "generator seed")
		tokenOnRegister = flag.Bool("token-on-register", false, "issue an access token from /register")
	)
	flag.Parse()

	secret := os.Getenv("DEVSERVER_JWT_SECRET")
	if secret == "" {
		secret = "dev-secret-change-me"
		log.Println("DEVSERVER_JWT_SECRET not set, using the development secret")
	}

	ctx := context.Background()
	repo, err := devserver.OpenRepo(ctx, *dbPath)
	if err != nil {
		log.Fatalf("open account db: %v", err)
	}
	defer repo.Close()

	tokens := devserver.TokenService{
		Secret:   []byte(secret),
		Issuer:   "phillysafe-devserver",
		Duration: 24 * time.Hour,
	}
	srv := devserver.New(repo, tokens, devserver.NewGenerator(*count, *seed), log.Default())
	srv.FixturePath = *fixture
	srv.TokenOnRegister = *tokenOnRegister

	router := gin.Default()
	srv.RegisterRoutes(router)

	httpSrv := &http.Server{
		Addr:    *addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("mirror-server listening on %s", *addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("shutdown signal received: %s", sig)
	case err := <-errCh:
		log.Printf("server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
	log.Println("mirror-server stopped")
}
