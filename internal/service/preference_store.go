package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fitit/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PreferenceStore 抽象本地偏好容器：每个 key 对应一整段文本。
type PreferenceStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
}

// GormPreferenceStore 基于 preferences 表实现 PreferenceStore
type GormPreferenceStore struct {
	db *gorm.DB
}

// NewGormPreferenceStore 构造 GormPreferenceStore
func NewGormPreferenceStore(gdb *gorm.DB) *GormPreferenceStore {
	return &GormPreferenceStore{db: gdb}
}

// Get 读取 key 对应的文本，不存在时 ok=false
func (s *GormPreferenceStore) Get(ctx context.Context, key string) (string, bool, error) {
	var record db.Preference
	if err := s.db.WithContext(ctx).Where("key = ?", key).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("load preference %s: %w", key, err)
	}
	return record.Value, true, nil
}

// Put 覆盖写入 key 对应的文本
func (s *GormPreferenceStore) Put(ctx context.Context, key, value string) error {
	record := db.Preference{Key: key, Value: value}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":      value,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(&record).Error; err != nil {
		return fmt.Errorf("upsert preference %s: %w", key, err)
	}
	return nil
}

// MemoryPreferenceStore 进程内实现，记录每个 key 的写入历史，主要面向测试与临时运行。
type MemoryPreferenceStore struct {
	mu      sync.Mutex
	values  map[string]string
	history map[string][]string
	getErr  error
	putErr  error
}

// NewMemoryPreferenceStore 构造 MemoryPreferenceStore，可传入初始值
func NewMemoryPreferenceStore(initial map[string]string) *MemoryPreferenceStore {
	values := make(map[string]string, len(initial))
	for k, v := range initial {
		values[k] = v
	}
	return &MemoryPreferenceStore{values: values, history: make(map[string][]string)}
}

// Get 实现 PreferenceStore，FailGets 设置的错误优先返回
func (s *MemoryPreferenceStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.getErr != nil {
		return "", false, s.getErr
	}
	value, ok := s.values[key]
	return value, ok, nil
}

// Put 实现 PreferenceStore，成功的写入会追加到 History
func (s *MemoryPreferenceStore) Put(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.putErr != nil {
		return s.putErr
	}
	s.values[key] = value
	s.history[key] = append(s.history[key], value)
	return nil
}

// History 返回 key 的全部成功写入，按写入顺序排列
func (s *MemoryPreferenceStore) History(key string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.history[key]...)
}

// FailGets 令后续读取返回 err，传 nil 恢复
func (s *MemoryPreferenceStore) FailGets(err error) {
	s.mu.Lock()
	s.getErr = err
	s.mu.Unlock()
}

// FailPuts 令后续写入返回 err，传 nil 恢复
func (s *MemoryPreferenceStore) FailPuts(err error) {
	s.mu.Lock()
	s.putErr = err
	s.mu.Unlock()
}
