package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"resumeforge/internal/database"
	"resumeforge/internal/resume"
)

// ErrNotFound 表示指定简历不存在。
var ErrNotFound = errors.New("resume not found")

// Repository 是文档存取的抽象。Load 未命中时返回 ErrNotFound，
// 由调用方决定回退到空白文档。
type Repository interface {
	Load(ctx context.Context, resumeID uint) (resume.Data, error)
	Save(ctx context.Context, resumeID uint, data resume.Data) error
}

// GormRepository 把文档读写落到 resumes 表的 JSONB 列。
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Load(ctx context.Context, resumeID uint) (resume.Data, error) {
	var row database.Resume
	if err := r.db.WithContext(ctx).First(&row, resumeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return resume.Data{}, ErrNotFound
		}
		return resume.Data{}, fmt.Errorf("load resume %d: %w", resumeID, err)
	}

	if len(row.Data) == 0 {
		return resume.New(), nil
	}
	var doc resume.Data
	if err := json.Unmarshal(row.Data, &doc); err != nil {
		return resume.Data{}, fmt.Errorf("decode resume %d: %w", resumeID, err)
	}
	return doc, nil
}

func (r *GormRepository) Save(ctx context.Context, resumeID uint, data resume.Data) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode resume %d: %w", resumeID, err)
	}

	result := r.db.WithContext(ctx).
		Model(&database.Resume{}).
		Where("id = ?", resumeID).
		Update("data", raw)
	if result.Error != nil {
		return fmt.Errorf("save resume %d: %w", resumeID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MemoryRepository 是测试用的内存实现。
type MemoryRepository struct {
	mu      sync.Mutex
	docs    map[uint]resume.Data
	saveErr error
	saves   int
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{docs: make(map[uint]resume.Data)}
}

func (r *MemoryRepository) Load(_ context.Context, resumeID uint) (resume.Data, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[resumeID]
	if !ok {
		return resume.Data{}, ErrNotFound
	}
	return doc, nil
}

func (r *MemoryRepository) Save(_ context.Context, resumeID uint, data resume.Data) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.docs[resumeID] = data
	r.saves++
	return nil
}

// FailSaves 让后续 Save 返回 err，传 nil 恢复。
func (r *MemoryRepository) FailSaves(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saveErr = err
}

// SaveCount 返回成功保存的次数。
func (r *MemoryRepository) SaveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}
