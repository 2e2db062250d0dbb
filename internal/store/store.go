package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"resumeforge/internal/resume"
)

// SaveState 是自动保存状态机的状态。
type SaveState string

const (
	StateIdle     SaveState = "idle"
	StatePending  SaveState = "pending"
	StateFlushing SaveState = "flushing"
)

const (
	defaultDebounce = 2 * time.Second
	saveTimeout     = 10 * time.Second
)

// Timer 是可注入的一次性定时器。
type Timer interface {
	Stop() bool
}

// TimerFactory 创建在 d 后触发 fn 的定时器。测试注入手动触发的实现。
type TimerFactory func(d time.Duration, fn func()) Timer

func realTimer(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// DocumentStore 持有一份简历文档并提供归约式变更操作。
// 每次变更置脏并按去抖窗口调度自动保存：idle 时起定时器进入 pending，
// pending 中的新变更重置定时器，flushing 中的新变更在保存完成后重新调度。
// 保存取写入时刻的快照，后写覆盖先写。
type DocumentStore struct {
	mu sync.Mutex

	repo     Repository
	resumeID uint
	logger   *slog.Logger

	debounce time.Duration
	newTimer TimerFactory

	doc     resume.Data
	dirty   bool
	loading bool
	lastErr error

	state SaveState
	timer Timer
	rearm bool
}

// NewDocumentStore 构造文档存储。调用方随后执行 Load 拉取初始文档。
func NewDocumentStore(repo Repository, resumeID uint, logger *slog.Logger) *DocumentStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentStore{
		repo:     repo,
		resumeID: resumeID,
		logger:   logger,
		debounce: defaultDebounce,
		newTimer: realTimer,
		doc:      resume.New(),
		state:    StateIdle,
	}
}

// SetDebounce 调整去抖窗口，仅在 Load 前调用。
func (s *DocumentStore) SetDebounce(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.debounce = d
}

// SetTimerFactory 注入定时器实现，仅测试使用。
func (s *DocumentStore) SetTimerFactory(f TimerFactory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.newTimer = f
}

// Load 拉取持久化文档。未命中回退为空白文档；失败记录在 LastError 上，
// 文档保持空白可编辑。
func (s *DocumentStore) Load(ctx context.Context) {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	doc, err := s.repo.Load(ctx, s.resumeID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	switch {
	case err == nil:
		s.doc = doc
		s.dirty = false
		s.lastErr = nil
	case errors.Is(err, ErrNotFound):
		s.doc = resume.New()
		s.dirty = false
		s.lastErr = nil
	default:
		s.logger.Error("load resume failed", slog.Uint64("resume_id", uint64(s.resumeID)), slog.Any("error", err))
		s.doc = resume.New()
		s.lastErr = err
	}
}

// UpdatePersonalInfo 合并个人信息字段。
func (s *DocumentStore) UpdatePersonalInfo(values map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.doc.ApplyPersonalInfo(values); err != nil {
		return err
	}
	s.markDirtyLocked()
	return nil
}

// AddEntry 向分区追加条目，返回生成的条目 id。
func (s *DocumentStore) AddEntry(section resume.SectionKey, values map[string]any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.doc.AddEntry(section, values)
	if err != nil {
		return "", err
	}
	s.markDirtyLocked()
	return id, nil
}

// UpdateEntry 按 id 对条目做部分合并。
func (s *DocumentStore) UpdateEntry(section resume.SectionKey, id string, patch map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.doc.UpdateEntry(section, id, patch); err != nil {
		return err
	}
	s.markDirtyLocked()
	return nil
}

// DeleteEntry 按 id 删除条目。
func (s *DocumentStore) DeleteEntry(section resume.SectionKey, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.doc.DeleteEntry(section, id); err != nil {
		return err
	}
	s.markDirtyLocked()
	return nil
}

// SetDocument 整体替换文档。
func (s *DocumentStore) SetDocument(doc resume.Data) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc
	s.markDirtyLocked()
}

// Reset 恢复为空白文档。
func (s *DocumentStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = resume.New()
	s.markDirtyLocked()
}

// Document 返回当前文档的深拷贝。
func (s *DocumentStore) Document() resume.Data {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := cloneData(s.doc)
	if err != nil {
		s.logger.Error("clone resume failed", slog.Any("error", err))
		return resume.New()
	}
	return doc
}

// Dirty 报告是否存在未保存的变更。
func (s *DocumentStore) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Loading 报告初始加载是否进行中。
func (s *DocumentStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// LastError 返回最近一次加载或保存的错误，成功保存后清空。
func (s *DocumentStore) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// State 返回自动保存状态机的当前状态。
func (s *DocumentStore) State() SaveState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Flush 立即保存未落盘的变更，跳过去抖窗口。关停路径调用。
func (s *DocumentStore) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if !s.dirty {
		s.state = StateIdle
		s.mu.Unlock()
		return nil
	}
	snapshot, err := cloneData(s.doc)
	if err != nil {
		s.lastErr = err
		s.mu.Unlock()
		return err
	}
	s.dirty = false
	s.state = StateFlushing
	s.mu.Unlock()

	saveErr := s.repo.Save(ctx, s.resumeID, snapshot)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.finishFlushLocked(saveErr)
	return saveErr
}

func (s *DocumentStore) markDirtyLocked() {
	s.dirty = true
	switch s.state {
	case StateIdle:
		s.state = StatePending
		s.timer = s.newTimer(s.debounce, s.timerFired)
	case StatePending:
		if s.timer != nil {
			s.timer.Stop()
		}
		s.timer = s.newTimer(s.debounce, s.timerFired)
	case StateFlushing:
		s.rearm = true
	}
}

func (s *DocumentStore) timerFired() {
	s.mu.Lock()
	if s.state != StatePending {
		s.mu.Unlock()
		return
	}
	snapshot, err := cloneData(s.doc)
	if err != nil {
		s.lastErr = err
		s.state = StateIdle
		s.timer = nil
		s.mu.Unlock()
		return
	}
	s.dirty = false
	s.state = StateFlushing
	s.timer = nil
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	saveErr := s.repo.Save(ctx, s.resumeID, snapshot)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.finishFlushLocked(saveErr)
}

// finishFlushLocked 收尾一次保存。失败只回脏并记录，不自动重试；
// flushing 期间到达的新变更重新起定时器。
func (s *DocumentStore) finishFlushLocked(saveErr error) {
	if saveErr != nil {
		s.logger.Error("autosave failed", slog.Uint64("resume_id", uint64(s.resumeID)), slog.Any("error", saveErr))
		s.lastErr = saveErr
		s.dirty = true
	} else {
		s.lastErr = nil
	}

	s.state = StateIdle
	if s.rearm {
		s.rearm = false
		s.state = StatePending
		s.timer = s.newTimer(s.debounce, s.timerFired)
	}
}

func cloneData(d resume.Data) (resume.Data, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return resume.Data{}, fmt.Errorf("encode document: %w", err)
	}
	var out resume.Data
	if err := json.Unmarshal(raw, &out); err != nil {
		return resume.Data{}, fmt.Errorf("decode document: %w", err)
	}
	return out, nil
}
