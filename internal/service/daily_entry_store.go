package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/fitit/internal/calendar"
	"github.com/fitit/internal/db"
	"github.com/fitit/internal/logger"
	"github.com/fitit/internal/metrics"
	"go.uber.org/zap"
)

const collectionDailyEntries = "daily_entries"

var (
	// ErrInvalidDateKey 日期 key 不符合 "{year}-{month+1}-{day}" 时返回
	ErrInvalidDateKey = errors.New("invalid date key")
	// ErrInvalidWater 饮水量为负数时返回
	ErrInvalidWater = errors.New("water amount must not be negative")
)

// DailyEntry 某一天的饮食与饮水记录。
// FoodIDs 保持顺序且允许重复（同一食物多份），可能引用已删除的食物。
type DailyEntry struct {
	Date    string `json:"date"`
	FoodIDs []int  `json:"foodIds"`
	WaterMl int    `json:"waterMl"`
}

// HasData 至少记录了一种食物或一定饮水量
func (e DailyEntry) HasData() bool {
	return len(e.FoodIDs) > 0 || e.WaterMl > 0
}

func (e DailyEntry) clone() DailyEntry {
	ids := make([]int, len(e.FoodIDs))
	copy(ids, e.FoodIDs)
	e.FoodIDs = ids
	return e
}

// SumCalories 累加每个 ID 的每 100g 热量，找不到的 ID 计为 0。
// 不按份量换算，与移动端的统计口径保持一致。
func SumCalories(foodIDs []int, catalog FoodLookup) int {
	total := 0
	for _, id := range foodIDs {
		if item, ok := catalog.Find(id); ok {
			total += item.Calories
		}
	}
	return total
}

// DailyEntryStore 以日期 key 索引每日记录，每次变更后把完整映射串行写回偏好存储。
type DailyEntryStore struct {
	mu       sync.RWMutex
	notifyMu sync.Mutex
	entries  map[string]DailyEntry
	loaded   bool

	prefs     PreferenceStore
	saves     *saveQueue
	logger    *zap.Logger
	listeners *listeners[map[string]DailyEntry]
}

// NewDailyEntryStore 构造 DailyEntryStore，调用方需随后执行 Load
func NewDailyEntryStore(prefs PreferenceStore, log *zap.Logger) *DailyEntryStore {
	log = logger.OrNop(log).With(zap.String("store", collectionDailyEntries))
	return &DailyEntryStore{
		entries:   make(map[string]DailyEntry),
		prefs:     prefs,
		saves:     newSaveQueue(collectionDailyEntries, db.PreferenceKeyDailyEntries, prefs, log),
		logger:    log,
		listeners: newListeners[map[string]DailyEntry](),
	}
}

// Load 读取持久化的记录数组并按 date 建立索引，重复 date 以后出现者为准。
// JSON 损坏或读取失败时以空映射继续。
func (s *DailyEntryStore) Load(ctx context.Context) error {
	raw, _, err := s.prefs.Get(ctx, db.PreferenceKeyDailyEntries)
	if err != nil {
		s.logger.Error("load daily entries failed", zap.Error(err))
	}

	entries := make(map[string]DailyEntry)
	if err == nil {
		list, decodeErr := decodeCollection[DailyEntry](raw)
		if decodeErr != nil {
			metrics.DecodeFailures.WithLabelValues(collectionDailyEntries).Inc()
			s.logger.Warn("decode daily entries failed, starting with empty log", zap.Error(decodeErr))
		}
		for _, entry := range list {
			if entry.FoodIDs == nil {
				entry.FoodIDs = []int{}
			}
			entries[entry.Date] = entry
		}
	}

	s.mu.Lock()
	s.entries = entries
	s.loaded = true
	snapshot := s.snapshotLocked()
	s.notifyMu.Lock()
	s.mu.Unlock()

	s.listeners.notify(snapshot)
	s.notifyMu.Unlock()

	if err != nil {
		return fmt.Errorf("load daily entries: %w", err)
	}
	s.logger.Info("daily entries loaded", zap.Int("entries", len(snapshot)))
	return nil
}

// Loaded 表示初始加载是否已完成
func (s *DailyEntryStore) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Get 返回 key 对应的记录，不存在表示当天没有数据
func (s *DailyEntryStore) Get(key string) (DailyEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[key]
	if !ok {
		return DailyEntry{}, false
	}
	return entry.clone(), true
}

// Update 用新记录整体替换 key 对应的记录并异步写回。
// 写入按调用顺序串行执行，函数本身不等待落盘。
func (s *DailyEntryStore) Update(key string, foodIDs []int, waterMl int) (DailyEntry, error) {
	if _, err := calendar.ParseKey(key); err != nil {
		return DailyEntry{}, fmt.Errorf("%w: %q", ErrInvalidDateKey, key)
	}
	if waterMl < 0 {
		return DailyEntry{}, fmt.Errorf("%w: %d", ErrInvalidWater, waterMl)
	}

	ids := make([]int, len(foodIDs))
	copy(ids, foodIDs)
	entry := DailyEntry{Date: key, FoodIDs: ids, WaterMl: waterMl}

	s.mu.Lock()
	s.entries[key] = entry
	snapshot := s.snapshotLocked()
	s.persistLocked(snapshot)
	s.notifyMu.Lock()
	s.mu.Unlock()

	s.listeners.notify(snapshot)
	s.notifyMu.Unlock()

	return entry.clone(), nil
}

// HasEntries 当天存在记录且至少有一种食物或饮水量大于 0
func (s *DailyEntryStore) HasEntries(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[key]
	return ok && entry.HasData()
}

// TotalCalories 汇总当天记录的热量，无记录时为 0
func (s *DailyEntryStore) TotalCalories(key string, catalog FoodLookup) int {
	entry, ok := s.Get(key)
	if !ok {
		return 0
	}
	return SumCalories(entry.FoodIDs, catalog)
}

// Snapshot 返回全部记录的副本
func (s *DailyEntryStore) Snapshot() map[string]DailyEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Entries 返回按日期先后排序的记录
func (s *DailyEntryStore) Entries() []DailyEntry {
	return sortedEntries(s.Snapshot())
}

// Subscribe 注册变更回调，返回取消函数。
// 回调在提交后按提交顺序调用，不能在回调中同步修改记录。
func (s *DailyEntryStore) Subscribe(fn func(map[string]DailyEntry)) func() {
	return s.listeners.add(fn)
}

// Flush 等待此前的写入全部完成
func (s *DailyEntryStore) Flush(ctx context.Context) error {
	return s.saves.flush(ctx)
}

// Close 停止写协程，已入队的写入仍会完成
func (s *DailyEntryStore) Close() {
	s.saves.close()
}

func (s *DailyEntryStore) snapshotLocked() map[string]DailyEntry {
	snapshot := make(map[string]DailyEntry, len(s.entries))
	for key, entry := range s.entries {
		snapshot[key] = entry.clone()
	}
	return snapshot
}

func (s *DailyEntryStore) persistLocked(snapshot map[string]DailyEntry) {
	payload, err := encodeCollection(sortedEntries(snapshot))
	if err != nil {
		s.logger.Error("encode daily entries failed", zap.Error(err))
		return
	}
	if !s.saves.enqueue(payload) {
		s.logger.Warn("save queue closed, dropping daily entries snapshot", zap.Int("entries", len(snapshot)))
	}
}

// sortedEntries 按日历顺序排列，无法解析的 key 排在最后并按文本排序
func sortedEntries(entries map[string]DailyEntry) []DailyEntry {
	keys := slices.Collect(maps.Keys(entries))
	slices.SortFunc(keys, func(a, b string) int {
		left, errA := calendar.ParseKey(a)
		right, errB := calendar.ParseKey(b)
		switch {
		case errA != nil && errB != nil:
			return cmp.Compare(a, b)
		case errA != nil:
			return 1
		case errB != nil:
			return -1
		case left.Before(right):
			return -1
		case right.Before(left):
			return 1
		default:
			return 0
		}
	})

	list := make([]DailyEntry, 0, len(keys))
	for _, key := range keys {
		list = append(list, entries[key])
	}
	return list
}
