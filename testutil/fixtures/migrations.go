// =============================================================================
// 📦 测试数据工厂 - 迁移目录
// =============================================================================
// 提供预定义的 directory 布局迁移集合（fstest.MapFS），用于测试
// =============================================================================
package fixtures

import "testing/fstest"

// Script 将 SQL 文本包装为 MapFS 文件
func Script(sql string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte(sql)}
}

// ThreeTables 返回 001/002/003 三个迁移，分别创建表 a、b、c
func ThreeTables() fstest.MapFS {
	return fstest.MapFS{
		"001/up.sql":   Script("CREATE TABLE a (id INTEGER PRIMARY KEY);"),
		"001/down.sql": Script("DROP TABLE a;"),
		"002/up.sql":   Script("CREATE TABLE b (id INTEGER PRIMARY KEY);"),
		"002/down.sql": Script("DROP TABLE b;"),
		"003/up.sql":   Script("CREATE TABLE c (id INTEGER PRIMARY KEY);"),
		"003/down.sql": Script("DROP TABLE c;"),
	}
}

// InitAndAddColumn 返回 001_init（建表 + 索引）与 002_add_col（加列）
func InitAndAddColumn() fstest.MapFS {
	return fstest.MapFS{
		"001_init/up.sql": Script(`
-- users table
CREATE TABLE users (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL
);
CREATE INDEX idx_users_name ON users (name);
`),
		"001_init/down.sql":    Script("DROP TABLE users;"),
		"002_add_col/up.sql":   Script("ALTER TABLE users ADD COLUMN email TEXT;"),
		"002_add_col/down.sql": Script("ALTER TABLE users DROP COLUMN email;"),
	}
}

// BrokenThird 返回四个迁移，003_bad 的第三条语句有语法错误
func BrokenThird() fstest.MapFS {
	return fstest.MapFS{
		"001_init/up.sql":    Script("CREATE TABLE users (id INTEGER PRIMARY KEY);"),
		"002_add_col/up.sql": Script("ALTER TABLE users ADD COLUMN email TEXT;"),
		"003_bad/up.sql": Script(
			"CREATE TABLE partial (id INTEGER);\n" +
				"INSERT INTO partial VALUES (1);\n" +
				"CREAT TABLE broken (id INTEGER);\n" +
				"CREATE TABLE never (id INTEGER);"),
		"004_later/up.sql": Script("CREATE TABLE later (id INTEGER);"),
	}
}
