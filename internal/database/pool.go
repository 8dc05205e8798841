package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	// database/sql drivers
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// =============================================================================
// 🗄️ 连接管理
// =============================================================================

// PoolConfig 连接配置
type PoolConfig struct {
	// 连接最大生命周期
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"CONN_MAX_LIFETIME"`

	// 建立连接的最大重试次数
	ConnectRetries int `yaml:"connect_retries" env:"CONNECT_RETRIES"`

	// 首次重试的退避时间，之后指数增长
	RetryBackoff time.Duration `yaml:"retry_backoff" env:"RETRY_BACKOFF"`
}

// DefaultPoolConfig 返回默认连接配置
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		ConnMaxLifetime: time.Hour,
		ConnectRetries:  3,
		RetryBackoff:    200 * time.Millisecond,
	}
}

// Open 打开数据库并固定一条连接，返回 Session
func Open(ctx context.Context, target Target, config PoolConfig, logger *zap.Logger) (Session, error) {
	dialect, err := DialectFor(target.Backend)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(target.Driver, target.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", target.Backend, err)
	}

	// 迁移只需要一条连接
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	if err := pingWithRetry(ctx, db, config, logger); err != nil {
		db.Close()
		return nil, err
	}

	session, err := NewSession(ctx, db, dialect, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("database connected",
		zap.String("backend", string(target.Backend)),
		zap.String("url", target.Redacted),
	)

	return session, nil
}

// pingWithRetry 探活（带重试）
func pingWithRetry(ctx context.Context, db *sql.DB, config PoolConfig, logger *zap.Logger) error {
	attempts := config.ConnectRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		err := db.PingContext(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryableError(err) || i == attempts-1 {
			break
		}

		logger.Warn("database ping failed, retrying",
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", attempts),
			zap.Error(err),
		)

		// 指数退避
		backoff := config.RetryBackoff * time.Duration(1<<uint(i))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	return fmt.Errorf("connect to database: %w", lastErr)
}

// isRetryableError 判断错误是否可重试
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errMsg := strings.ToLower(err.Error())

	// 连接相关错误
	if strings.Contains(errMsg, "connection reset") ||
		strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "broken pipe") ||
		strings.Contains(errMsg, "i/o timeout") {
		return true
	}

	// 数据库启动中（PostgreSQL SQLSTATE 57P03）
	if strings.Contains(errMsg, "57p03") || strings.Contains(errMsg, "starting up") {
		return true
	}

	// driver: bad connection（Go database/sql 标准错误）
	if strings.Contains(errMsg, "bad connection") {
		return true
	}

	return false
}
