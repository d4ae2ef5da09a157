//nolint:goprintffuncname
package sql

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mlopslite/mlopslite/pkg/utils"
)

// LoggerAdaptorConfig tunes which statements reach the log.
type LoggerAdaptorConfig struct {
	SlowThreshold             time.Duration
	IgnoreRecordNotFoundError bool
}

// gormLogrus forwards gorm's statement log to logrus.
type gormLogrus struct {
	logger *logrus.Logger
	config LoggerAdaptorConfig
}

// NewLoggerAdaptor wraps l so it can be passed as gorm.Config.Logger.
//
//nolint:ireturn
func NewLoggerAdaptor(l *logrus.Logger, cfg LoggerAdaptorConfig) logger.Interface {
	return &gormLogrus{logger: l, config: cfg}
}

// LogMode is a no-op; the level comes from the logrus logger.
//
//nolint:ireturn
func (g *gormLogrus) LogMode(_ logger.LogLevel) logger.Interface {
	return g
}

const callerDepth = 15

// entry builds a log entry carrying the request id and the first caller outside gorm.
func (g *gormLogrus) entry(ctx context.Context) *logrus.Entry {
	entry := logrus.NewEntry(g.logger).WithField("component", "store")
	if ctx != nil {
		entry = entry.WithContext(ctx)
	}

	if requestID, ok := utils.RequestIDFrom(ctx); ok {
		entry = entry.WithField("request_id", requestID)
	}

	pcs := make([]uintptr, callerDepth)
	frames := runtime.CallersFrames(pcs[:runtime.Callers(4, pcs)])

	for {
		frame, more := frames.Next()
		if !strings.HasPrefix(frame.Function, "gorm.io/") && frame.Function != "" {
			return entry.WithFields(logrus.Fields{
				"app_file": fmt.Sprintf("%s:%d", frame.File, frame.Line),
				"app_func": frame.Function + "()",
			})
		}

		if !more {
			return entry
		}
	}
}

func (g *gormLogrus) Info(ctx context.Context, format string, args ...interface{}) {
	g.entry(ctx).Infof(format, args...)
}

func (g *gormLogrus) Warn(ctx context.Context, format string, args ...interface{}) {
	g.entry(ctx).Warnf(format, args...)
}

func (g *gormLogrus) Error(ctx context.Context, format string, args ...interface{}) {
	g.entry(ctx).Errorf(format, args...)
}

func (g *gormLogrus) withStatement(
	ctx context.Context, elapsed time.Duration, statement func() (string, int64),
) *logrus.Entry {
	sql, rows := statement()

	fields := logrus.Fields{
		"elapsed_ms": float64(elapsed.Microseconds()) / 1000,
		"sql":        sql,
		"rows":       rows,
	}
	if rows < 0 {
		fields["rows"] = "-"
	}

	return g.entry(ctx).WithFields(fields)
}

// Trace logs failed statements at error, slow ones at warn and everything else at debug.
func (g *gormLogrus) Trace(ctx context.Context, begin time.Time, statement func() (string, int64), err error) {
	elapsed := time.Since(begin)

	switch {
	case err != nil && g.logger.IsLevelEnabled(logrus.ErrorLevel):
		if errors.Is(err, gorm.ErrRecordNotFound) && g.config.IgnoreRecordNotFoundError {
			return
		}

		g.withStatement(ctx, elapsed, statement).WithError(err).Error("query failed")
	case g.config.SlowThreshold > 0 && elapsed > g.config.SlowThreshold &&
		g.logger.IsLevelEnabled(logrus.WarnLevel):
		g.withStatement(ctx, elapsed, statement).Warnf("slow query over %v", g.config.SlowThreshold)
	case g.logger.IsLevelEnabled(logrus.DebugLevel):
		g.withStatement(ctx, elapsed, statement).Debug("query")
	}
}
