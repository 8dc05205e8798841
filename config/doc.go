// Package config 提供 sqlmigrate 的配置管理功能。
//
// 支持从 YAML 文件、SQLMIGRATE_ 前缀环境变量与 DATABASE_URL 加载配置，
// 命令行参数在 main 中最后覆盖。
package config
