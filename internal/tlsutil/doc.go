// Package tlsutil 提供集中式 TLS 配置，
// 为启用 hardened TLS 的数据库连接提供安全加固的客户端设置（TLS 1.2+，仅 AEAD 密码套件，可选自定义 CA）。
package tlsutil
