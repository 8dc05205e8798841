// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package main 提供 sqlmigrate 命令行程序入口。

# 概述

cmd/sqlmigrate 读取配置（YAML、SQLMIGRATE_ 环境变量、DATABASE_URL、
命令行参数），根据连接 URL 选择后端，打开单连接会话并执行迁移命令。
命令输出写 stdout，日志与错误写 stderr；任何失败均以退出码 1 结束。

# 主要能力

  - 子命令：run、rollback [count]、status、reset、version、help
  - 参数：--config、--database-url、--dir，可出现在 count 前后
  - 每次调用生成 run_id 并附加到全部日志
  - 可选：指标写入 textfile，OTLP 追踪
  - 构建注入：Version、BuildTime、GitCommit 通过 ldflags 设置
*/
package main
