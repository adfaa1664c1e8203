package database

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/lk2023060901/school-assistant-backend/internal/pkg/logger"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"missing host", func(c *Config) { c.Host = "" }},
		{"invalid port", func(c *Config) { c.Port = 0 }},
		{"port too large", func(c *Config) { c.Port = 70000 }},
		{"missing user", func(c *Config) { c.User = "" }},
		{"missing dbname", func(c *Config) { c.DBName = "" }},
		{"invalid ssl mode", func(c *Config) { c.SSLMode = "sometimes" }},
		{"invalid log level", func(c *Config) { c.LogLevel = "verbose" }},
		{"negative pool", func(c *Config) { c.MaxIdleConns = -1 }},
		{"idle exceeds open", func(c *Config) { c.MaxIdleConns, c.MaxOpenConns = 20, 10 }},
		{"negative lifetime", func(c *Config) { c.ConnMaxLifetime = -time.Second }},
	}

	require.NoError(t, DefaultConfig().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfig_DSN(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DBName = "schoolbot"
	assert.Equal(t,
		"host=localhost port=5432 user=postgres password=postgres dbname=schoolbot sslmode=disable TimeZone=UTC",
		cfg.DSN())

	cfg.Timezone = ""
	assert.NotContains(t, cfg.DSN(), "TimeZone")
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Host = ""
	_, err := New(cfg, logger.NewNop())
	assert.ErrorContains(t, err, "invalid database configuration")
}

func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: DefaultConfig().DSN()}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               gormlogger.Discard,
	})
	require.NoError(t, err)
	return db
}

type row struct {
	ID       string
	Category string
}

func TestScopes(t *testing.T) {
	db := dryRunDB(t)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return tx.Model(&row{}).
			Scopes(WhereIf(true, "category = ?", "exams"), Paginate(3, 10)).
			Find(&[]row{})
	})
	assert.Contains(t, sql, `category = 'exams'`)
	assert.Contains(t, sql, "LIMIT 10 OFFSET 20")

	sql = db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return tx.Model(&row{}).
			Scopes(WhereIf(false, "category = ?", "exams"), Paginate(0, 0)).
			Find(&[]row{})
	})
	assert.NotContains(t, sql, "category =")
	assert.Contains(t, sql, "LIMIT 20")
	assert.NotContains(t, sql, "OFFSET")
}

func TestIsRecordNotFoundError(t *testing.T) {
	assert.True(t, IsRecordNotFoundError(gorm.ErrRecordNotFound))
	assert.True(t, IsRecordNotFoundError(fmt.Errorf("lookup: %w", gorm.ErrRecordNotFound)))
	assert.False(t, IsRecordNotFoundError(errors.New("boom")))
	assert.False(t, IsRecordNotFoundError(nil))
}

func TestGormLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	lgr := logger.NewWithCore(core)
	cfg := DefaultConfig()
	cfg.SlowThreshold = 10 * time.Millisecond

	gl := newGormLogger(lgr, cfg)
	ctx := logger.WithRequestID(context.Background(), "req-1")
	query := func() (string, int64) { return "SELECT 1", 1 }

	gl.Trace(ctx, time.Now(), query, errors.New("broken"))
	gl.Trace(ctx, time.Now(), query, gorm.ErrRecordNotFound)
	gl.Trace(ctx, time.Now().Add(-time.Second), query, nil)
	gl.Trace(ctx, time.Now(), query, nil)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "database query error", entries[0].Message)
	assert.Equal(t, "req-1", entries[0].ContextMap()["request_id"])
	assert.Equal(t, "slow sql query", entries[1].Message)

	silent := gl.LogMode(gormlogger.Silent)
	silent.Trace(ctx, time.Now(), query, errors.New("hidden"))
	silent.Error(ctx, "hidden %d", 1)
	assert.Equal(t, 2, logs.Len())

	verbose := gl.LogMode(gormlogger.Info)
	verbose.Trace(ctx, time.Now(), query, nil)
	verbose.Info(ctx, "migrated %d tables", 2)
	assert.Equal(t, "database query", logs.All()[2].Message)
	assert.Equal(t, "migrated 2 tables", logs.All()[3].Message)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, parseLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, parseLogLevel("error"))
	assert.Equal(t, gormlogger.Info, parseLogLevel("info"))
	assert.Equal(t, gormlogger.Warn, parseLogLevel("warn"))
	assert.Equal(t, gormlogger.Warn, parseLogLevel(""))
}
