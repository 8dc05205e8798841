// Copyright 2026 AgentFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package testutil 提供 sqlmigrate 测试的共享工具和辅助函数。

# 概述

testutil 包为各包的单元测试与集成测试提供统一的辅助能力，
避免各包重复实现相似的测试基础设施。

# 核心能力

  - 上下文辅助: TestContext / TestContextWithTimeout / CancelledContext，
    自动注册 Cleanup 防止泄漏
  - 数据库辅助: OpenSQLite 打开临时 SQLite 会话，TableExists 探查表
  - 目录辅助: WriteMigration 在磁盘上生成迁移目录

# 子包

  - testutil/mocks: MockRecorder（指标记录器）与 MockCatalog
    （内存迁移目录，支持错误注入）
  - testutil/fixtures: 预置迁移集合，如三表迁移、
    初始化加列、含错误语句的迁移

# 使用示例

	session := testutil.OpenSQLite(t)
	cat := catalog.New(fixtures.ThreeTables(), "migrations", catalog.DefaultOptions())
	engine := migration.NewEngine(cat, session, migration.Config{}, zap.NewNop())
*/
package testutil
