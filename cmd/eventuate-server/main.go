// Command eventuate-server runs eventuate as a standalone admin service:
// a thin REST wrapper over Producer.Send for operators who don't want to
// embed the library directly.
package main

import (
	"context"
	"database/sql"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/coregx/eventuate"
	"github.com/coregx/eventuate/adapters/relica"
	"github.com/coregx/eventuate/cmd/eventuate-server/internal/api"
	"github.com/coregx/eventuate/cmd/eventuate-server/internal/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// logrusAdapter satisfies eventuate.Logger by delegating to logrus, an
// adapter-over-interface shape for integrating a concrete logging library.
type logrusAdapter struct {
	entry *logrus.Logger
}

func (l *logrusAdapter) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *logrusAdapter) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *logrusAdapter) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *logrusAdapter) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }
func (l *logrusAdapter) Info(message string)                       { l.entry.Info(message) }

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	logger := &logrusAdapter{entry: log}

	appCfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load server configuration")
	}
	libCfg, err := eventuate.LoadConfig()
	if err != nil {
		log.WithError(err).Fatal("failed to load eventuate configuration")
	}

	db, err := sql.Open(libCfg.DatabaseDriver, libCfg.DatabaseDSN)
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}
	defer db.Close()

	store := relica.NewOutboxStore(db, libCfg.DatabaseDriver)
	producer, err := eventuate.NewProducer(store, eventuate.WithProducerLogger(logger))
	if err != nil {
		log.WithError(err).Fatal("failed to build producer")
	}

	router := chi.NewRouter()
	router.Use(middleware.Logger, middleware.Recoverer)
	h := &api.Handlers{Producer: producer, Logger: logger}
	h.Routes(router)

	srv := &http.Server{Addr: appCfg.HTTPAddr, Handler: router}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		log.WithField("addr", appCfg.HTTPAddr).Info("eventuate-server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
