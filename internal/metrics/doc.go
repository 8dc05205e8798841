// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 metrics 提供基于 Prometheus 的迁移指标采集能力。

# 概述

Collector 在私有 Registry 上通过 promauto.With 注册指标，所有指标
按 namespace 隔离。迁移命令是短生命周期进程，因此指标通过
WriteTextfile 写出为文本文件，由 node_exporter 的 textfile
collector 采集，而不是暴露 HTTP 端点。

# 核心类型

  - Collector：指标收集器，实现迁移引擎的 Recorder 接口。

# 主要能力

  - 迁移指标：按 direction/outcome 统计迁移数，按 direction 统计
    耗时与语句数，待执行迁移数 Gauge。
  - 命令指标：按 command/status 统计命令执行次数与最后完成时间。
*/
package metrics
