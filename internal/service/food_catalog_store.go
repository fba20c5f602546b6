package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"slices"
	"strings"
	"sync"

	"github.com/fitit/internal/db"
	"github.com/fitit/internal/logger"
	"github.com/fitit/internal/metrics"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

const collectionFoodItems = "food_items"

var (
	// ErrFoodNotFound 在指定食物不存在时返回
	ErrFoodNotFound = errors.New("food item not found")
	// ErrFoodNameRequired 名称为空时返回
	ErrFoodNameRequired = errors.New("food name is required")
	// ErrFoodNameMarkup 名称包含 HTML 标记时返回，名称按输入原样保存，不做清洗
	ErrFoodNameMarkup = errors.New("food name must not contain markup")
	// ErrFoodNameTooLong 名称超过 120 个字符时返回
	ErrFoodNameTooLong = errors.New("food name is too long")
	// ErrFoodInvalidCalories 热量为负数时返回
	ErrFoodInvalidCalories = errors.New("calories must not be negative")
)

// FoodItem 目录中的一种食物，Calories 为每 100g 热量
type FoodItem struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Calories int    `json:"calories"`
}

// FoodInput 定义新增食物时的输入
type FoodInput struct {
	Name     string `validate:"required,max=120"`
	Calories int    `validate:"gte=0"`
}

// FoodLookup 按 ID 查找食物，用于热量汇总
type FoodLookup interface {
	Find(id int) (FoodItem, bool)
}

// FoodIndex 是 FoodLookup 的 map 实现
type FoodIndex map[int]FoodItem

// Find 实现 FoodLookup
func (idx FoodIndex) Find(id int) (FoodItem, bool) {
	item, ok := idx[id]
	return item, ok
}

// FoodCatalogStore 持有用户的食物目录。
// 所有变更都经由本结构完成，并把完整目录串行写回偏好存储。
type FoodCatalogStore struct {
	mu       sync.RWMutex
	notifyMu sync.Mutex
	items    []FoodItem
	loaded   bool

	prefs     PreferenceStore
	saves     *saveQueue
	logger    *zap.Logger
	validate  *validator.Validate
	sanitizer *bluemonday.Policy
	listeners *listeners[[]FoodItem]
}

// NewFoodCatalogStore 构造 FoodCatalogStore，调用方需随后执行 Load
func NewFoodCatalogStore(prefs PreferenceStore, log *zap.Logger) *FoodCatalogStore {
	log = logger.OrNop(log).With(zap.String("store", collectionFoodItems))
	return &FoodCatalogStore{
		prefs:     prefs,
		saves:     newSaveQueue(collectionFoodItems, db.PreferenceKeyFoodItems, prefs, log),
		logger:    log,
		validate:  validator.New(),
		sanitizer: bluemonday.StrictPolicy(),
		listeners: newListeners[[]FoodItem](),
	}
}

// Load 从偏好存储读取目录。
// JSON 损坏时以空目录继续并记录；读取失败同样以空目录继续，但会返回错误供调用方记录。
func (s *FoodCatalogStore) Load(ctx context.Context) error {
	raw, _, err := s.prefs.Get(ctx, db.PreferenceKeyFoodItems)
	if err != nil {
		s.logger.Error("load food items failed", zap.Error(err))
	}

	var items []FoodItem
	if err == nil {
		items, err = decodeCollection[FoodItem](raw)
		if err != nil {
			metrics.DecodeFailures.WithLabelValues(collectionFoodItems).Inc()
			s.logger.Warn("decode food items failed, starting with empty catalog", zap.Error(err))
			items, err = nil, nil
		}
	}
	if items == nil {
		items = []FoodItem{}
	}

	s.mu.Lock()
	s.items = items
	s.loaded = true
	snapshot := slices.Clone(s.items)
	s.notifyMu.Lock()
	s.mu.Unlock()

	s.listeners.notify(snapshot)
	s.notifyMu.Unlock()

	if err != nil {
		return fmt.Errorf("load food items: %w", err)
	}
	s.logger.Info("food catalog loaded", zap.Int("items", len(snapshot)))
	return nil
}

// Loaded 表示初始加载是否已完成
func (s *FoodCatalogStore) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Add 新增食物，ID 取现有最大 ID + 1
func (s *FoodCatalogStore) Add(name string, calories int) (FoodItem, error) {
	input := FoodInput{
		Name:     strings.TrimSpace(name),
		Calories: calories,
	}
	if err := s.validateInput(input); err != nil {
		return FoodItem{}, err
	}
	// 严格策略只会转义纯文本，结果不同说明含有标记
	if s.sanitizer.Sanitize(input.Name) != html.EscapeString(input.Name) {
		return FoodItem{}, ErrFoodNameMarkup
	}

	s.mu.Lock()
	nextID := 1
	for _, item := range s.items {
		if item.ID >= nextID {
			nextID = item.ID + 1
		}
	}
	item := FoodItem{ID: nextID, Name: input.Name, Calories: input.Calories}
	s.items = append(s.items, item)

	snapshot := slices.Clone(s.items)
	s.persistLocked(snapshot)
	s.notifyMu.Lock()
	s.mu.Unlock()

	s.listeners.notify(snapshot)
	s.notifyMu.Unlock()

	return item, nil
}

// Remove 从目录中移除与 item 同 ID 的食物；ID 不存在时目录不变但仍会写回
func (s *FoodCatalogStore) Remove(item FoodItem) {
	s.mu.Lock()
	s.items = slices.DeleteFunc(s.items, func(existing FoodItem) bool {
		return existing.ID == item.ID
	})

	snapshot := slices.Clone(s.items)
	s.persistLocked(snapshot)
	s.notifyMu.Lock()
	s.mu.Unlock()

	s.listeners.notify(snapshot)
	s.notifyMu.Unlock()
}

// Items 返回目录快照，空目录返回非 nil 的空切片
func (s *FoodCatalogStore) Items() []FoodItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]FoodItem, len(s.items))
	copy(items, s.items)
	return items
}

// Find 实现 FoodLookup
func (s *FoodCatalogStore) Find(id int) (FoodItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return FoodItem{}, false
}

// Get 与 Find 相同，但在不存在时返回 ErrFoodNotFound
func (s *FoodCatalogStore) Get(id int) (FoodItem, error) {
	item, ok := s.Find(id)
	if !ok {
		return FoodItem{}, fmt.Errorf("%w: id=%d", ErrFoodNotFound, id)
	}
	return item, nil
}

// Lookup 返回当前目录的索引快照
func (s *FoodCatalogStore) Lookup() FoodIndex {
	s.mu.RLock()
	defer s.mu.RUnlock()

	index := make(FoodIndex, len(s.items))
	for _, item := range s.items {
		index[item.ID] = item
	}
	return index
}

// Search 按名称做不区分大小写的包含匹配，空查询返回全部
func (s *FoodCatalogStore) Search(query string) []FoodItem {
	items := s.Items()

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return items
	}

	return slices.DeleteFunc(items, func(item FoodItem) bool {
		return !strings.Contains(strings.ToLower(item.Name), query)
	})
}

// Subscribe 注册变更回调，返回取消函数。
// 回调在提交后按提交顺序调用，不能在回调中同步修改目录。
func (s *FoodCatalogStore) Subscribe(fn func([]FoodItem)) func() {
	return s.listeners.add(fn)
}

// Flush 等待此前的写入全部完成
func (s *FoodCatalogStore) Flush(ctx context.Context) error {
	return s.saves.flush(ctx)
}

// Close 停止写协程，已入队的写入仍会完成
func (s *FoodCatalogStore) Close() {
	s.saves.close()
}

func (s *FoodCatalogStore) persistLocked(snapshot []FoodItem) {
	payload, err := encodeCollection(snapshot)
	if err != nil {
		s.logger.Error("encode food items failed", zap.Error(err))
		return
	}
	if !s.saves.enqueue(payload) {
		s.logger.Warn("save queue closed, dropping food items snapshot", zap.Int("items", len(snapshot)))
	}
}

func (s *FoodCatalogStore) validateInput(input FoodInput) error {
	if err := s.validate.Struct(input); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				switch fe.Field() {
				case "Name":
					if fe.Tag() == "required" {
						return ErrFoodNameRequired
					}
					return ErrFoodNameTooLong
				case "Calories":
					return fmt.Errorf("%w: %d", ErrFoodInvalidCalories, input.Calories)
				}
			}
		}
		return fmt.Errorf("validate food input: %w", err)
	}
	return nil
}
