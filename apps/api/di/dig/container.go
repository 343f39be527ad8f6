package dig_container

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/edutok/edutok/apps/api/echo"
	"github.com/edutok/edutok/core"
	"github.com/edutok/edutok/core/report"
	"github.com/edutok/edutok/core/user"
	emailsvc "github.com/edutok/edutok/services/email"
	firebasesvc "github.com/edutok/edutok/services/firebase"
	logsvc "github.com/edutok/edutok/services/logger"
	"github.com/edutok/edutok/storage/database"
	inmemdb "github.com/edutok/edutok/storage/database/inmem"
	sqlxrepos "github.com/edutok/edutok/storage/database/sqlx"
	redisdb "github.com/edutok/edutok/storage/redis"
)

type (
	// Storage groups the repositories of the configured storage driver.
	Storage struct {
		Reports  report.Repository
		Profiles user.Repository
		Grades   report.GradeSource // nil when the driver has no authoritative grade store
		closers  []func() error
	}

	// firebaseClients lazily initializes the firebase app & database, shared by auth and storage.
	firebaseClients struct {
		conf *core.Config
		once sync.Once
		app  *firebase.App
		db   *db.Client
		err  error
	}
)

// Close releases the connections held by the storage driver.
func (s *Storage) Close() error {
	var firstErr error
	for _, closeFn := range s.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (fc *firebaseClients) init() (*firebase.App, *db.Client, error) {
	fc.once.Do(func() {
		ctx := context.Background()
		if fc.app, fc.err = firebasesvc.NewApp(ctx, fc.conf); fc.err != nil {
			return
		}
		if fc.conf.Storage.Driver == core.StorageFirebase {
			fc.db, fc.err = firebasesvc.NewDatabase(ctx, fc.app)
		}
	})
	return fc.app, fc.db, fc.err
}

func newFirebaseClients(conf *core.Config) *firebaseClients {
	return &firebaseClients{conf: conf}
}

func newLogger(conf *core.Config) *logsvc.RollbarLogger {
	zl, err := logsvc.NewZapLogger(conf)
	if err != nil {
		log.Fatalf("setting up logger: %v", err)
	}
	logger := logsvc.NewRollbarLogger(zl, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(logger, conf)
	}
	return emailsvc.NewSendgridService(logger, conf)
}

func newPostgres(conf *core.Config) (*sql.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}
	sqlDB, err := database.Open(conf)
	if err != nil {
		return nil, err
	}
	if err = database.Migrate(sqlDB, "up"); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return sqlDB, nil
}

// newStorage opens the repositories of conf.Storage.Driver.
// Profiles fall back to the in-memory store, so that profiles are built from identity tokens.
func newStorage(conf *core.Config, fc *firebaseClients) (*Storage, error) {
	mem := inmemdb.Open()
	s := &Storage{Profiles: inmemdb.NewProfileRepository(mem)}

	switch conf.Storage.Driver {
	case core.StorageMemory, "":
		s.Reports = inmemdb.NewReportRepository(mem)

	case core.StorageFirebase:
		_, client, err := fc.init()
		if err != nil {
			return nil, errors.Wrap(err, "setting up firebase")
		}
		s.Reports = firebasesvc.NewReportRepository(client)
		s.Profiles = firebasesvc.NewProfileRepository(client)
		s.Grades = firebasesvc.NewGradeRepository(client)

	case core.StoragePostgres:
		sqlDB, err := newPostgres(conf)
		if err != nil {
			return nil, errors.Wrap(err, "setting up database")
		}
		s.Reports = sqlxrepos.NewReportRepository(sqlDB)
		s.closers = append(s.closers, sqlDB.Close)

	case core.StorageRedis:
		rdb, err := redisdb.Open(conf)
		if err != nil {
			return nil, errors.Wrap(err, "setting up redis")
		}
		s.Reports = redisdb.NewReportRepository(rdb)
		s.closers = append(s.closers, rdb.Close)

	default:
		return nil, errors.Errorf("unknown storage driver %q", conf.Storage.Driver)
	}
	return s, nil
}

func newVerifier(conf *core.Config, fc *firebaseClients) (user.Verifier, error) {
	switch conf.Auth.Provider {
	case core.AuthLocal, "":
		return user.NewLocalVerifier(conf.AppName, conf.SecretKey), nil
	case core.AuthFirebase:
		app, _, err := fc.init()
		if err != nil {
			return nil, errors.Wrap(err, "setting up firebase")
		}
		verifier, err := firebasesvc.NewVerifier(context.Background(), app)
		if err != nil {
			return nil, err
		}
		return verifier, nil
	default:
		return nil, errors.Errorf("unknown auth provider %q", conf.Auth.Provider)
	}
}

func newUserService(verifier user.Verifier, storage *Storage) user.Service {
	return user.NewService(verifier, storage.Profiles)
}

func newReportService(conf *core.Config, logger core.Logger, mailSvc core.EmailService, storage *Storage) (report.Service, error) {
	opts := []report.Option{
		report.WithValidity(conf.Reports.Validity),
		report.WithNotifications(mailSvc),
	}
	if !conf.Reports.TrustClientGrades {
		if storage.Grades == nil {
			return nil, errors.Errorf("storage driver %q has no grade store; enable reports.trustClientGrades", conf.Storage.Driver)
		}
		opts = append(opts, report.WithGradeSource(storage.Grades))
	}
	return report.NewService(storage.Reports, logger, conf, opts...), nil
}

func newServer(
	conf *core.Config,
	logger core.Logger,
	userSvc user.Service,
	reportSvc report.Service,
	validate *validator.Validate,
	translator ut.Translator,
) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:       conf,
		Logger:     logger,
		UserSvc:    userSvc,
		ReportSvc:  reportSvc,
		Validate:   validate,
		Translator: translator,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(func(l *logsvc.RollbarLogger) core.Logger { return l }))
	must(c.Provide(newEmailService))
	must(c.Provide(newFirebaseClients))
	must(c.Provide(newStorage))
	must(c.Provide(newVerifier))
	must(c.Provide(newUserService))
	must(c.Provide(newReportService))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(core.NewValidator))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(fmt.Sprintf("%+v", errors.Wrap(err, "failed to provide dependency")))
	}
}
