// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器
type Collector struct {
	registry *prometheus.Registry

	// 迁移指标
	migrationsTotal   *prometheus.CounterVec
	migrationDuration *prometheus.HistogramVec
	statementsTotal   *prometheus.CounterVec
	pendingMigrations prometheus.Gauge

	// 命令指标
	commandsTotal   *prometheus.CounterVec
	lastCommandTime *prometheus.GaugeVec

	logger *zap.Logger
}

// NewCollector 创建指标收集器
// 每个 Collector 持有独立的 Registry，不污染默认 registry。
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	c := &Collector{
		registry: reg,
		logger:   logger.With(zap.String("component", "metrics")),
	}

	// 迁移指标
	c.migrationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "migrations_total",
			Help:      "Total number of migrations processed",
		},
		[]string{"direction", "outcome"},
	)

	c.migrationDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "migration_duration_seconds",
			Help:      "Migration execution duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"direction"},
	)

	c.statementsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "statements_total",
			Help:      "Total number of SQL statements executed",
		},
		[]string{"direction"},
	)

	c.pendingMigrations = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_migrations",
			Help:      "Number of migrations not yet applied",
		},
	)

	// 命令指标
	c.commandsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Total number of CLI commands executed",
		},
		[]string{"command", "status"},
	)

	c.lastCommandTime = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_command_timestamp_seconds",
			Help:      "Unix time of the last command completion",
		},
		[]string{"command", "status"},
	)

	c.logger.Debug("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// Registry 返回收集器使用的 registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// =============================================================================
// 🗄️ 迁移指标记录
// =============================================================================

// ObserveMigration 记录单个迁移的结果与耗时
func (c *Collector) ObserveMigration(direction, outcome string, duration time.Duration) {
	c.migrationsTotal.WithLabelValues(direction, outcome).Inc()
	if outcome != "skipped" {
		c.migrationDuration.WithLabelValues(direction).Observe(duration.Seconds())
	}
}

// AddStatements 累加已执行的语句数
func (c *Collector) AddStatements(direction string, n int) {
	c.statementsTotal.WithLabelValues(direction).Add(float64(n))
}

// SetPending 更新待执行迁移数
func (c *Collector) SetPending(n int) {
	c.pendingMigrations.Set(float64(n))
}

// =============================================================================
// 🎯 命令指标记录
// =============================================================================

// RecordCommand 记录 CLI 命令执行结果
func (c *Collector) RecordCommand(command string, err error) {
	status := commandStatus(err)
	c.commandsTotal.WithLabelValues(command, status).Inc()
	c.lastCommandTime.WithLabelValues(command, status).SetToCurrentTime()
}

// =============================================================================
// 📤 导出
// =============================================================================

// WriteTextfile 以 Prometheus 文本格式写出全部指标，
// 供 node_exporter textfile collector 采集。
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	c.logger.Debug("metrics textfile written", zap.String("path", path))
	return nil
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

// commandStatus 将命令错误转换为 label 值
func commandStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
