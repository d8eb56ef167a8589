package logger

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"
)

type GormLoggerConfig struct {
	Level         gormlogger.LogLevel
	SlowThreshold time.Duration
	// Expected reports store errors the services translate into domain
	// errors (unique, check and foreign key violations). They are logged at
	// warn level instead of error.
	Expected func(error) bool
}

func DefaultGormLoggerConfig() GormLoggerConfig {
	return GormLoggerConfig{
		Level:         gormlogger.Warn,
		SlowThreshold: 200 * time.Millisecond,
	}
}

// GormLogger writes gorm statements through the request-scoped zap logger.
// Bound values are never logged.
type GormLogger struct {
	cfg GormLoggerConfig
}

func NewGormLogger(cfg GormLoggerConfig) *GormLogger {
	return &GormLogger{cfg: cfg}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	next := *l
	next.cfg.Level = level
	return &next
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	l.message(ctx, gormlogger.Info, zap.InfoLevel, msg, data)
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	l.message(ctx, gormlogger.Warn, zap.WarnLevel, msg, data)
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	l.message(ctx, gormlogger.Error, zap.ErrorLevel, msg, data)
}

func (l *GormLogger) message(ctx context.Context, min gormlogger.LogLevel, level zapcore.Level, msg string, data []interface{}) {
	if l.cfg.Level < min {
		return
	}
	fields := []zap.Field{zap.String("component", "gorm")}
	if len(data) > 0 {
		fields = append(fields, zap.Any("data", data))
	}
	if ce := FromContext(ctx).Check(level, msg); ce != nil {
		ce.Write(fields...)
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.cfg.Level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && errors.Is(err, gormlogger.ErrRecordNotFound):
		// Lookups report absence with nil results; nothing to log.
	case err != nil && l.cfg.Expected != nil && l.cfg.Expected(err):
		if l.cfg.Level >= gormlogger.Warn {
			l.query(ctx, fc, elapsed, err, zap.WarnLevel, "store_violation")
		}
	case err != nil && l.cfg.Level >= gormlogger.Error:
		l.query(ctx, fc, elapsed, err, zap.ErrorLevel, "error")
	case l.cfg.SlowThreshold != 0 && elapsed > l.cfg.SlowThreshold && l.cfg.Level >= gormlogger.Warn:
		l.query(ctx, fc, elapsed, nil, zap.WarnLevel, "slow")
	case l.cfg.Level >= gormlogger.Info:
		l.query(ctx, fc, elapsed, nil, zap.DebugLevel, "ok")
	}
}

// ParamsFilter drops bound values: they carry password hashes, CNPJs and
// adopter documents.
func (l *GormLogger) ParamsFilter(_ context.Context, sql string, _ ...interface{}) (string, []interface{}) {
	return sql, nil
}

func (l *GormLogger) query(ctx context.Context, fc func() (string, int64), elapsed time.Duration, err error, level zapcore.Level, outcome string) {
	sql, rows := fc()
	statement := describeSQL(sql)
	fields := []zap.Field{
		zap.String("component", "gorm"),
		zap.String("outcome", outcome),
		zap.String("operation", statement.operation),
		zap.String("table", statement.table),
		zap.Bool("spatial", statement.spatial),
		zap.Int64("duration_ms", elapsed.Milliseconds()),
		zap.String("sql", strings.TrimSpace(sql)),
	}
	if rows >= 0 {
		fields = append(fields, zap.Int64("rows_affected", rows))
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	if ce := FromContext(ctx).Check(level, "gorm.query"); ce != nil {
		ce.Write(fields...)
	}
}

type sqlStatement struct {
	operation string
	table     string
	spatial   bool
}

// describeSQL extracts the verb, the first table touched and whether the
// statement uses PostGIS predicates.
func describeSQL(sql string) sqlStatement {
	out := sqlStatement{operation: "UNKNOWN", table: "unknown"}
	upper := strings.ToUpper(sql)
	out.spatial = strings.Contains(upper, "ST_DWITHIN") || strings.Contains(upper, "ST_DISTANCE")

	tokens := strings.Fields(upper)
	original := strings.Fields(sql)
	for i, token := range tokens {
		token = strings.Trim(token, "();")
		if out.operation == "UNKNOWN" {
			switch token {
			case "SELECT", "INSERT", "UPDATE", "DELETE":
				out.operation = token
			}
		}
		var next bool
		switch token {
		case "FROM", "INTO":
			next = true
		case "UPDATE":
			next = out.operation == "UPDATE"
		}
		if next && out.table == "unknown" && i+1 < len(original) {
			name := strings.Trim(original[i+1], `"();`+"`")
			if name != "" && !strings.HasPrefix(name, "(") && !strings.EqualFold(name, "SELECT") {
				out.table = strings.ToLower(name)
			}
		}
	}
	return out
}

var _ gormlogger.Interface = (*GormLogger)(nil)
