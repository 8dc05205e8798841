// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 segment 将迁移脚本的原始文本拆分为可逐条执行的 SQL 语句。

# 概述

朴素地按分号拆分会破坏触发器、存储过程等过程块，因为块体内部
本身包含分号。Split 逐行扫描文本，遇到 BEGIN / DECLARE 或
CREATE [OR REPLACE] TRIGGER|PROCEDURE|FUNCTION|PACKAGE 时进入块模式，
直到出现 END; 才结束当前语句。

# 规则

  - 块外的空行与注释行（以 -- 开头）被丢弃；块内保留。
  - 不跟踪嵌套深度：块内第一个 END; 即关闭整个块。
  - 以 END; 结尾的语句原样保留分号，其余语句去掉尾部分号。
  - Whole 用于可一次提交整段脚本的后端（如 PostgreSQL）。
*/
package segment
