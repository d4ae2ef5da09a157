package sql

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ncruces/go-sqlite3/gormlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"

	"github.com/mlopslite/mlopslite/pkg/config"
	"github.com/mlopslite/mlopslite/pkg/contract"
	"github.com/mlopslite/mlopslite/pkg/monitoring"
	"github.com/mlopslite/mlopslite/pkg/store"
	"github.com/mlopslite/mlopslite/pkg/store/sql/model"

	_ "github.com/ncruces/go-sqlite3/embed"
)

type Store struct {
	config *config.Config
	db     *gorm.DB
	now    func() time.Time
}

var _ store.RegistryStore = (*Store)(nil)

// LIKE is case sensitive on every other backend.
const sqlitePragmas = "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=case_sensitive_like(1)"

// dialectorFor picks the gorm dialector from the store url scheme.
//
//nolint:ireturn
func dialectorFor(storeURL string) (gorm.Dialector, error) {
	parsed, err := url.Parse(storeURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse store url %q: %w", storeURL, err)
	}

	switch parsed.Scheme {
	case "sqlite", "sqlite3":
		path := strings.TrimPrefix(storeURL, parsed.Scheme+"://")
		if path == "" || path == ":memory:" {
			path = ":memory:"
		}

		return gormlite.Open("file:" + path + sqlitePragmas), nil
	case "postgres", "postgresql":
		return postgres.Open(storeURL), nil
	case "mysql":
		return mysql.Open(strings.TrimPrefix(storeURL, "mysql://")), nil
	case "mssql", "sqlserver":
		parsed.Scheme = "sqlserver"

		return sqlserver.Open(parsed.String()), nil
	default:
		return nil, fmt.Errorf("unsupported store url scheme %q", parsed.Scheme)
	}
}

// NewRegistryStore connects to the configured database and migrates the schema.
func NewRegistryStore(cfg *config.Config, logger *logrus.Logger) (*Store, error) {
	dialector, err := dialectorFor(cfg.StoreURL)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: NewLoggerAdaptor(logger, LoggerAdaptorConfig{
			SlowThreshold:             cfg.SlowQueryThreshold.Duration,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database %q: %w", cfg.StoreURL, err)
	}

	if db.Dialector.Name() == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database handle: %w", err)
		}

		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(
		&model.Dataset{},
		&model.DatasetColumn{},
		&model.Deployable{},
		&model.ExecutionLog{},
		&model.ExecutionItem{},
		&model.RequestField{},
		&model.ResponseField{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Debugf("connected to %s store", db.Dialector.Name())

	return &Store{config: cfg, db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}

// observe records the duration of a store operation.
func observe(operation string) func() {
	start := time.Now()

	return func() {
		monitoring.ObserveStoreOperation(operation, time.Since(start))
	}
}

func notFound(kind string, id int64, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return contract.Errorf(contract.ErrorCodeResourceDoesNotExist, "%s with id=%d not found", kind, id)
	}

	return contract.NewErrorWith(contract.ErrorCodeInternalError, fmt.Sprintf("failed to get %s with id=%d", kind, id), err)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	message := strings.ToLower(err.Error())

	return strings.Contains(message, "unique") || strings.Contains(message, "duplicate")
}
