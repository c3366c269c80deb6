package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"sessiond/internal/client"
	"sessiond/internal/config"
	"sessiond/internal/platform/database"
	"sessiond/internal/session"
	"sessiond/internal/status"
	"sessiond/internal/vault"
	vaultstore "sessiond/internal/vault/store"
)

var goEnv string = "development"

func main() {
	// 로거 설정
	if goEnv == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	log.Info().Str("environment", goEnv).Msg("Starting session keeper")

	config.SetConfig(goEnv)

	db, err := database.NewDB(config.Conf.Vault.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open vault database")
	}
	defer db.Close()

	v, err := vault.New(vault.Config{Secret: config.Conf.Vault.Secret}, vaultstore.NewStore(db))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize vault")
	}

	manager := session.NewManager(v, session.Config{
		RefreshURL:            config.Conf.Session.RefreshURL,
		ExpiringSoonThreshold: config.Conf.Session.ExpiringSoonThreshold,
		LogoutGrace:           config.Conf.Session.LogoutGrace,
		MaxSessionAge:         config.Conf.Session.MaxSessionAge,
		RequestTimeout:        config.Conf.Session.RequestTimeout,
	})
	manager.Start(func(reason session.LogoutReason) {
		log.Info().Str("reason", string(reason)).Msg("session ended")
	})
	defer manager.Close()

	// 라우터 생성
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("{\"status\": \"ok\"}"))
	})

	session.NewHandler(manager).RegisterRoutes(mux)
	client.NewHandler(client.New(manager, config.Conf.Session.RequestTimeout)).RegisterRoutes(mux)
	status.NewHandler(manager).RegisterRoutes(mux)
	config.NewHandler().RegisterRoutes(mux)

	// The keeper only ever serves local consumers.
	addr := "127.0.0.1:" + config.Conf.Server.Port
	server := &http.Server{
		Addr:    addr,
		Handler: Logger(mux),
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Server is running")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Shutdown failed")
	}
}

// Logger 미들웨어
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Debug().Str("remote", r.RemoteAddr).Str("method", r.Method).Str("path", r.URL.Path).Msg("request")
		next.ServeHTTP(w, r)
	})
}
