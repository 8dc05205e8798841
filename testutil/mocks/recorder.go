// =============================================================================
// 📊 MockRecorder - 迁移指标记录器模拟实现
// =============================================================================
// 记录迁移引擎上报的全部指标调用，便于断言
//
// 使用方法:
//
//	rec := mocks.NewMockRecorder()
//	engine := migration.NewEngine(cat, session, cfg, logger, migration.WithRecorder(rec))
//	rec.Outcomes() // ["up:applied", "up:skipped", ...]
// =============================================================================
package mocks

import (
	"sync"
	"time"
)

// MockRecorder 是指标记录器的模拟实现
type MockRecorder struct {
	mu sync.Mutex

	outcomes   []string
	durations  []time.Duration
	statements map[string]int
	pending    []int
}

// NewMockRecorder 创建新的 MockRecorder
func NewMockRecorder() *MockRecorder {
	return &MockRecorder{statements: make(map[string]int)}
}

// ObserveMigration 记录 "direction:outcome"
func (m *MockRecorder) ObserveMigration(direction, outcome string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, direction+":"+outcome)
	m.durations = append(m.durations, d)
}

// AddStatements 按方向累加语句数
func (m *MockRecorder) AddStatements(direction string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statements[direction] += n
}

// SetPending 记录每次待执行数更新
func (m *MockRecorder) SetPending(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, n)
}

// Outcomes 返回按调用顺序记录的结果
func (m *MockRecorder) Outcomes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.outcomes...)
}

// Statements 返回指定方向的语句总数
func (m *MockRecorder) Statements(direction string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statements[direction]
}

// Pending 返回全部待执行数更新
func (m *MockRecorder) Pending() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.pending...)
}
