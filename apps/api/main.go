package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/trezcool/ratiba/apps/api/echo"
	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/notification"
	"github.com/trezcool/ratiba/core/schedule"
	"github.com/trezcool/ratiba/core/substitution"
	emailsvc "github.com/trezcool/ratiba/services/email"
	logsvc "github.com/trezcool/ratiba/services/logger"
	inmemdb "github.com/trezcool/ratiba/storage/database/inmem"
	sqlxrepos "github.com/trezcool/ratiba/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up stores; the directory is an in-memory stand-in for the school's
	// people records and is seeded with fixtures either way.
	memDB, err := inmemdb.Open()
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	dir := inmemdb.NewDirectory(memDB)
	inmemdb.SeedDirectory(dir)

	var (
		entryRepo   schedule.Repository
		requestRepo substitution.Repository
		notifRepo   notification.Repository
		logRepo     notification.LogRepository
	)
	if conf.Database.Engine == "postgres" {
		db, err := sqlxrepos.Open(conf.Database)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
		}
		defer func() {
			if err = db.Close(); err != nil {
				logger.Error(fmt.Sprintf("closing database: %v", err), err)
			}
		}()
		if err = sqlxrepos.Migrate(db); err != nil {
			logger.Fatal(fmt.Sprintf("migrating database: %v", err), err)
		}
		entryRepo = sqlxrepos.NewEntryRepository(db)
		requestRepo = sqlxrepos.NewRequestRepository(db)
		notifRepo = sqlxrepos.NewNotificationRepository(db)
		logRepo = sqlxrepos.NewNotificationLogRepository(db)
	} else {
		entryRepo = inmemdb.NewEntryRepository(memDB)
		requestRepo = inmemdb.NewRequestRepository(memDB)
		notifRepo = inmemdb.NewNotificationRepository(memDB)
		logRepo = inmemdb.NewNotificationLogRepository(memDB)
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf)
	}

	notifSvc := notification.NewService(notifRepo, logRepo, dir, mailSvc, logger, conf.Notification.QueueSize)
	schedSvc := schedule.NewService(entryRepo, notifSvc)
	subSvc := substitution.NewService(requestRepo, schedSvc, notifSvc)

	reminders, err := notification.NewReminderScheduler(notifSvc, schedSvc, logger, conf.Notification)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up reminder scheduler: %v", err), err)
	}

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)

	notifSvc.Start(conf.Notification.SendWorkers)
	defer notifSvc.Stop()

	reminders.Start()
	defer reminders.Stop()

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:            conf,
			Logger:          logger,
			ScheduleSvc:     schedSvc,
			SubstitutionSvc: subSvc,
			NotificationSvc: notifSvc,
			Reminders:       reminders,
			Validate:        validate,
			Translator:      translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
