package store

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"resumeforge/internal/database"
	"resumeforge/internal/resume"
)

type fakeTimer struct {
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	t.stopped = true
	return true
}

// timerControl 记录创建的定时器并允许测试手动触发。
type timerControl struct {
	timers []*fakeTimer
}

func (c *timerControl) factory(_ time.Duration, fn func()) Timer {
	t := &fakeTimer{fn: fn}
	c.timers = append(c.timers, t)
	return t
}

func (c *timerControl) fire(t *testing.T) {
	t.Helper()
	if len(c.timers) == 0 {
		t.Fatal("no timer armed")
	}
	last := c.timers[len(c.timers)-1]
	if last.stopped {
		t.Fatal("latest timer already stopped")
	}
	last.fn()
}

func newTestStore(repo Repository) (*DocumentStore, *timerControl) {
	ctl := &timerControl{}
	s := NewDocumentStore(repo, 1, nil)
	s.SetTimerFactory(ctl.factory)
	return s, ctl
}

func TestLoadAbsentYieldsDefaultDocument(t *testing.T) {
	s, _ := newTestStore(NewMemoryRepository())
	s.Load(context.Background())

	if s.Dirty() {
		t.Fatal("fresh document should not be dirty")
	}
	if s.LastError() != nil {
		t.Fatalf("unexpected error: %v", s.LastError())
	}
	doc := s.Document()
	if doc.Experience == nil || len(doc.Experience) != 0 {
		t.Fatal("expected empty default document")
	}
}

func TestAutosaveRoundTrip(t *testing.T) {
	repo := NewMemoryRepository()
	s, ctl := newTestStore(repo)
	s.Load(context.Background())

	if _, err := s.AddEntry(resume.SectionExperience, map[string]any{
		"company": "Acme", "position": "Engineer",
	}); err != nil {
		t.Fatalf("add entry: %v", err)
	}
	if !s.Dirty() || s.State() != StatePending {
		t.Fatalf("expected dirty pending, got dirty=%v state=%s", s.Dirty(), s.State())
	}

	ctl.fire(t)

	if s.Dirty() || s.State() != StateIdle {
		t.Fatalf("expected clean idle after flush, got dirty=%v state=%s", s.Dirty(), s.State())
	}
	if repo.SaveCount() != 1 {
		t.Fatalf("expected one save, got %d", repo.SaveCount())
	}

	saved, err := repo.Load(context.Background(), 1)
	if err != nil {
		t.Fatalf("load saved: %v", err)
	}
	if !reflect.DeepEqual(saved, s.Document()) {
		t.Fatal("persisted document differs from in-memory document")
	}
}

func TestOverlappingEditsResetTimer(t *testing.T) {
	repo := NewMemoryRepository()
	s, ctl := newTestStore(repo)
	s.Load(context.Background())

	if err := s.UpdatePersonalInfo(map[string]any{"first_name": "Jane"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := s.UpdatePersonalInfo(map[string]any{"last_name": "Doe"}); err != nil {
		t.Fatalf("update: %v", err)
	}

	if len(ctl.timers) != 2 {
		t.Fatalf("expected timer reset (2 timers), got %d", len(ctl.timers))
	}
	if !ctl.timers[0].stopped {
		t.Fatal("first timer should be stopped")
	}

	ctl.fire(t)
	if repo.SaveCount() != 1 {
		t.Fatalf("overlapping edits should collapse into one save, got %d", repo.SaveCount())
	}
	saved, _ := repo.Load(context.Background(), 1)
	if saved.PersonalInfo.FirstName != "Jane" || saved.PersonalInfo.LastName != "Doe" {
		t.Fatalf("save missed an edit: %+v", saved.PersonalInfo)
	}
}

// hookRepo 在 Save 执行中回调，模拟 flushing 期间到达的编辑。
type hookRepo struct {
	*MemoryRepository
	onSave func()
}

func (r *hookRepo) Save(ctx context.Context, resumeID uint, data resume.Data) error {
	if r.onSave != nil {
		hook := r.onSave
		r.onSave = nil
		hook()
	}
	return r.MemoryRepository.Save(ctx, resumeID, data)
}

func TestEditDuringFlushReschedules(t *testing.T) {
	repo := &hookRepo{MemoryRepository: NewMemoryRepository()}
	s, ctl := newTestStore(repo)
	s.Load(context.Background())

	repo.onSave = func() {
		if err := s.UpdatePersonalInfo(map[string]any{"first_name": "Late"}); err != nil {
			t.Errorf("edit during flush: %v", err)
		}
	}

	if err := s.UpdatePersonalInfo(map[string]any{"first_name": "Early"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	ctl.fire(t)

	// flushing 期间的编辑保存完成后重新进入 pending
	if s.State() != StatePending || !s.Dirty() {
		t.Fatalf("expected pending dirty after flush, got state=%s dirty=%v", s.State(), s.Dirty())
	}

	ctl.fire(t)
	if s.State() != StateIdle || s.Dirty() {
		t.Fatalf("expected idle clean, got state=%s dirty=%v", s.State(), s.Dirty())
	}
	saved, _ := repo.Load(context.Background(), 1)
	if saved.PersonalInfo.FirstName != "Late" {
		t.Fatalf("last write should win, got %q", saved.PersonalInfo.FirstName)
	}
	if repo.SaveCount() != 2 {
		t.Fatalf("expected two saves, got %d", repo.SaveCount())
	}
}

func TestSaveFailureSurfacesOnLastError(t *testing.T) {
	repo := NewMemoryRepository()
	s, ctl := newTestStore(repo)
	s.Load(context.Background())

	saveErr := errors.New("db unavailable")
	repo.FailSaves(saveErr)

	if err := s.UpdatePersonalInfo(map[string]any{"first_name": "Jane"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	ctl.fire(t)

	if !errors.Is(s.LastError(), saveErr) {
		t.Fatalf("expected save error surfaced, got %v", s.LastError())
	}
	if !s.Dirty() {
		t.Fatal("failed save should leave document dirty")
	}
	// 失败不自动重试，等待下一次编辑
	if s.State() != StateIdle {
		t.Fatalf("expected idle after failed save, got %s", s.State())
	}

	repo.FailSaves(nil)
	if err := s.UpdatePersonalInfo(map[string]any{"last_name": "Doe"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	ctl.fire(t)

	if s.LastError() != nil {
		t.Fatalf("successful save should clear error, got %v", s.LastError())
	}
	if s.Dirty() {
		t.Fatal("expected clean after successful save")
	}
}

func TestFlushSkipsDebounce(t *testing.T) {
	repo := NewMemoryRepository()
	s, ctl := newTestStore(repo)
	s.Load(context.Background())

	if err := s.UpdatePersonalInfo(map[string]any{"first_name": "Jane"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := s.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if repo.SaveCount() != 1 {
		t.Fatalf("expected one save, got %d", repo.SaveCount())
	}
	if !ctl.timers[len(ctl.timers)-1].stopped {
		t.Fatal("pending timer should be cancelled by flush")
	}
	// 无脏数据时 Flush 是空操作
	if err := s.Flush(context.Background()); err != nil {
		t.Fatalf("noop flush: %v", err)
	}
	if repo.SaveCount() != 1 {
		t.Fatalf("noop flush should not save, got %d saves", repo.SaveCount())
	}
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// 每个测试独立的共享缓存内存库，避免连接池拿到空库
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestGormRepositoryRoundTrip(t *testing.T) {
	db := openTestDB(t)
	row := database.Resume{Title: "Main", UserID: 1}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("create resume row: %v", err)
	}

	repo := NewGormRepository(db)
	ctx := context.Background()

	// 空 Data 列回退为空白文档
	doc, err := repo.Load(ctx, row.ID)
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if len(doc.Experience) != 0 {
		t.Fatal("expected empty default document")
	}

	doc.PersonalInfo.FirstName = "Jane"
	doc.Skills = []resume.Skill{{ID: "s1", Name: "Go", Category: "Lang"}}
	if err := repo.Save(ctx, row.ID, doc); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := repo.Load(ctx, row.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(loaded, doc) {
		t.Fatalf("round trip mismatch:\nsaved  %+v\nloaded %+v", doc, loaded)
	}
}

func TestGormRepositoryNotFound(t *testing.T) {
	repo := NewGormRepository(openTestDB(t))
	if _, err := repo.Load(context.Background(), 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.Save(context.Background(), 999, resume.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on save, got %v", err)
	}
}
