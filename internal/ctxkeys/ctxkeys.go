// Package ctxkeys 定义在 context 中传递的调用级标识。
package ctxkeys

import "context"

// contextKey 用于在 context 中存储值的键类型
type contextKey string

const (
	runIDKey   contextKey = "run_id"
	commandKey contextKey = "command"
)

// WithRunID 设置 RunID（每次命令调用一个）
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// RunID 获取 RunID
func RunID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(runIDKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// WithCommand 设置当前 CLI 命令名
func WithCommand(ctx context.Context, command string) context.Context {
	return context.WithValue(ctx, commandKey, command)
}

// Command 获取当前 CLI 命令名
func Command(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(commandKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
