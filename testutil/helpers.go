// =============================================================================
// 🧪 测试辅助函数
// =============================================================================
// 提供通用的测试辅助函数：上下文、SQLite 会话、迁移目录与数据库探查
//
// 使用方法:
//
//	ctx := testutil.TestContext(t)
//	session := testutil.OpenSQLite(t)
//	testutil.WriteMigration(t, root, "001_init", "CREATE TABLE a (id INTEGER);", "DROP TABLE a;")
// =============================================================================
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/sqlmigrate/internal/database"
)

// =============================================================================
// 🎯 上下文辅助
// =============================================================================

// TestContext 返回带超时的测试上下文
func TestContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// TestContextWithTimeout 返回带自定义超时的测试上下文
func TestContextWithTimeout(t *testing.T, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}

// CancelledContext 返回已取消的上下文
func CancelledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

// =============================================================================
// 🗄️ 数据库辅助
// =============================================================================

// SQLiteURL 返回临时目录下的 SQLite 连接 URL
func SQLiteURL(t *testing.T) string {
	t.Helper()
	return "sqlite://" + filepath.Join(t.TempDir(), "test.db")
}

// OpenSQLite 打开临时 SQLite 数据库会话，测试结束时自动关闭
func OpenSQLite(t *testing.T) database.Session {
	t.Helper()

	target, err := database.ParseURL(SQLiteURL(t))
	if err != nil {
		t.Fatalf("parse sqlite url: %v", err)
	}

	session, err := database.Open(context.Background(), target, database.DefaultPoolConfig(), zap.NewNop())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = session.Close() })

	return session
}

// TableExists 判断 SQLite 中是否存在指定表，查询后提交读事务
func TableExists(t *testing.T, session database.Session, name string) bool {
	t.Helper()
	ctx := context.Background()

	rows, err := session.Query(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name)
	if err != nil {
		t.Fatalf("query sqlite_master: %v", err)
	}
	var n int
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			t.Fatalf("scan: %v", err)
		}
	}
	if err := rows.Close(); err != nil {
		t.Fatalf("close rows: %v", err)
	}
	if err := session.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	return n > 0
}

// =============================================================================
// 📁 迁移目录辅助
// =============================================================================

// WriteMigration 在 root 下创建 <id>/up.sql 与 <id>/down.sql，空字符串表示不创建该文件
func WriteMigration(t *testing.T, root, id, up, down string) {
	t.Helper()

	dir := filepath.Join(root, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	for name, body := range map[string]string{"up.sql": up, "down.sql": down} {
		if body == "" {
			continue
		}
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}
