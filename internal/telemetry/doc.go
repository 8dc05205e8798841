// Package telemetry 封装 OpenTelemetry SDK 初始化逻辑，
// 为 sqlmigrate 提供集中式的 TracerProvider 配置，迁移命令与每个迁移各对应一个 span。
// 当遥测功能禁用时，使用 noop 实现，不连接任何外部服务。
package telemetry
