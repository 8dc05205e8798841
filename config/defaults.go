// =============================================================================
// 📦 sqlmigrate 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import (
	"github.com/BaSui01/sqlmigrate/internal/catalog"
	"github.com/BaSui01/sqlmigrate/internal/database"
	"github.com/BaSui01/sqlmigrate/internal/tracker"
)

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Database:   DefaultDatabaseConfig(),
		Migrations: DefaultMigrationsConfig(),
		Log:        DefaultLogConfig(),
		Metrics:    DefaultMetricsConfig(),
		Telemetry:  DefaultTelemetryConfig(),
	}
}

// DefaultDatabaseConfig 返回默认数据库配置
// 未设置 URL 与 Driver，连接信息必须由调用方提供。
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Host: "localhost",
		Pool: database.DefaultPoolConfig(),
	}
}

// DefaultMigrationsConfig 返回默认迁移目录配置
func DefaultMigrationsConfig() MigrationsConfig {
	opts := catalog.DefaultOptions()
	return MigrationsConfig{
		Dir:             "migrations",
		Layout:          string(opts.Layout),
		Table:           tracker.DefaultTable,
		UpFile:          opts.UpFile,
		DownFile:        opts.DownFile,
		BackendSubdir:   false,
		SplitStatements: "auto",
	}
}

// DefaultLogConfig 返回默认日志配置
// 日志写 stderr，stdout 留给命令输出。
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		EnableCaller:     false,
		EnableStacktrace: false,
	}
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		TextfilePath: "",
		Namespace:    "sqlmigrate",
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		Insecure:     true,
		ServiceName:  "sqlmigrate",
		SampleRate:   1.0,
	}
}
