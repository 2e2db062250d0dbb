package store

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// Manager 按简历 ID 缓存 DocumentStore，保证同一份文档的编辑
// 共享一个自动保存状态机。首次获取时加载持久化文档。
type Manager struct {
	mu     sync.Mutex
	repo   Repository
	logger *slog.Logger
	stores map[uint]*DocumentStore
}

// NewManager 构造文档管理器。
func NewManager(repo Repository, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		repo:   repo,
		logger: logger,
		stores: make(map[uint]*DocumentStore),
	}
}

// Acquire 返回简历对应的 DocumentStore，必要时创建并加载。
func (m *Manager) Acquire(ctx context.Context, resumeID uint) *DocumentStore {
	m.mu.Lock()
	if st, ok := m.stores[resumeID]; ok {
		m.mu.Unlock()
		return st
	}
	st := NewDocumentStore(m.repo, resumeID, m.logger)
	m.stores[resumeID] = st
	m.mu.Unlock()

	st.Load(ctx)
	return st
}

// Forget 丢弃简历的缓存存储，不落盘。简历删除后调用。
func (m *Manager) Forget(resumeID uint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.stores, resumeID)
}

// FlushAll 立即保存全部缓存文档的未落盘变更。关停路径调用。
func (m *Manager) FlushAll(ctx context.Context) error {
	m.mu.Lock()
	stores := make([]*DocumentStore, 0, len(m.stores))
	for _, st := range m.stores {
		stores = append(stores, st)
	}
	m.mu.Unlock()

	var errs []error
	for _, st := range stores {
		if err := st.Flush(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
