// =============================================================================
// 📁 MockCatalog - 迁移目录模拟实现
// =============================================================================
// 内存中的迁移目录，支持列表与加载错误注入
//
// 使用方法:
//
//	cat := mocks.NewMockCatalog().
//	    WithMigration("001", "CREATE TABLE a (id INTEGER);", "DROP TABLE a;").
//	    WithLoadError("002", errors.New("permission denied"))
// =============================================================================
package mocks

import (
	"fmt"
	"sort"
	"sync"

	"github.com/BaSui01/sqlmigrate/internal/catalog"
)

type scripts struct {
	up, down *string
}

// MockCatalog 是迁移目录的模拟实现
type MockCatalog struct {
	mu sync.Mutex

	migrations map[string]scripts

	// 错误注入
	listErr  error
	loadErrs map[string]error

	// 调用记录
	loads []string
}

// NewMockCatalog 创建空的 MockCatalog
func NewMockCatalog() *MockCatalog {
	return &MockCatalog{
		migrations: make(map[string]scripts),
		loadErrs:   make(map[string]error),
	}
}

// WithMigration 添加迁移，空字符串表示缺少对应脚本
func (m *MockCatalog) WithMigration(id, up, down string) *MockCatalog {
	m.mu.Lock()
	defer m.mu.Unlock()
	var s scripts
	if up != "" {
		s.up = &up
	}
	if down != "" {
		s.down = &down
	}
	m.migrations[id] = s
	return m
}

// WithListError 设置 List 返回的错误
func (m *MockCatalog) WithListError(err error) *MockCatalog {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listErr = err
	return m
}

// WithLoadError 设置加载指定迁移时返回的错误
func (m *MockCatalog) WithLoadError(id string, err error) *MockCatalog {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadErrs[id] = err
	return m
}

// List 返回排序后的迁移 ID
func (m *MockCatalog) List() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	ids := make([]string, 0, len(m.migrations))
	for id := range m.migrations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Load 返回脚本内容；缺少脚本时返回 catalog.ErrMissingFile
func (m *MockCatalog) Load(id string, dir catalog.Direction) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads = append(m.loads, id+":"+string(dir))

	if err, ok := m.loadErrs[id]; ok {
		return "", err
	}
	s := m.migrations[id]
	text := s.up
	if dir == catalog.Down {
		text = s.down
	}
	if text == nil {
		return "", fmt.Errorf("%w: %s/%s.sql", catalog.ErrMissingFile, id, dir)
	}
	return *text, nil
}

// Loads 返回全部 Load 调用（"id:direction"）
func (m *MockCatalog) Loads() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.loads...)
}
