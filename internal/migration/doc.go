// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 migration 提供基于文件的 SQL 迁移执行引擎，支持 PostgreSQL、
Oracle、MySQL 与 SQLite。

# 概述

Engine 将迁移目录（catalog）与记账表中的已应用集合（tracker）
进行比对，计算待执行集合与回滚集合，并按顺序逐个执行。每个迁移的
全部语句与记账表变更在同一事务中提交或回滚；迁移之间不共享事务。

# 核心类型

  - Engine：迁移引擎，提供 Run / Rollback / Reset / Status。
  - Report / Step：一次命令中每个迁移的结果（applied、rolled_back、
    skipped、failed）。
  - StatusReport：状态报告，包含已应用/待执行计数以及目录中已不存在
    的孤立记录（Orphaned）。
  - StatementError：数据库拒绝某条语句时返回，携带迁移 ID、语句
    序号与语句文本。
  - CLI：命令行交互层，封装 Engine 提供格式化输出。

# 执行规则

  - 缺少 up/down 脚本的迁移记录警告后跳过，不影响后续迁移。
  - 任何语句失败都会回滚当前事务并终止整个命令。
  - Rollback(n) 回滚最近应用的 n 个迁移（按版本降序）；n 超过已应用
    数量时回滚全部。
  - SplitMode 决定脚本是否拆分为单条语句（见 segment 包）。
*/
package migration
