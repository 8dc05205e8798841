// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 database 提供迁移执行所需的数据库会话抽象，支持 PostgreSQL、
Oracle、MySQL 与 SQLite 四种后端。

# 概述

ParseURL 根据连接 URL 的 scheme 选择后端并生成驱动 DSN，不会建立
任何连接；无法识别的 scheme 返回 ErrUnsupportedBackend。Open 打开
数据库、带重试地探活，并固定一条连接封装为 Session。

# 核心接口与类型

  - Session：单连接会话，Exec/Query 按需开启事务，Commit/Rollback
    结束事务，Close 回滚未完成的事务并释放连接。
  - Dialect：后端差异（占位符、标识符引用、建表语句、"表已存在"
    错误识别、是否需要拆分语句）。
  - Target：解析后的连接目标，Redacted 字段可安全写入日志。
  - PoolConfig：连接生命周期与探活重试配置。

# 驱动

  - PostgreSQL：github.com/jackc/pgx/v5/stdlib（SQLSTATE 42P07）
  - Oracle：github.com/sijms/go-ora/v2（ORA-00955）
  - MySQL：github.com/go-sql-driver/mysql（错误号 1050）
  - SQLite：modernc.org/sqlite（消息匹配 "already exists"）
*/
package database
