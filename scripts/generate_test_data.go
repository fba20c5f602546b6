package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/fitit/internal/calendar"
	"github.com/fitit/internal/config"
	"github.com/fitit/internal/db"
	"github.com/fitit/internal/logger"
	"github.com/fitit/internal/service"
	"go.uber.org/zap"
)

// 演示用食物，热量为每 100g
var demoFoods = []struct {
	Name     string
	Calories int
}{
	{"Jabłko", 52},
	{"Chleb żytni", 259},
	{"Jajko", 155},
	{"Twaróg", 98},
	{"Banan", 89},
	{"Ryż", 130},
	{"Pierś z kurczaka", 165},
	{"Owsianka", 68},
}

type seedResult struct {
	Foods   int
	Entries int
}

// 测试数据生成器
func main() {
	// 初始化数据库
	cfg := config.Load()
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	zlog, err := logger.New(logger.Options{Level: cfg.LogLevel})
	if err != nil {
		log.Fatal("日志初始化失败:", err)
	}
	defer zlog.Sync()

	fmt.Println("开始生成测试数据...")

	result, err := seed(context.Background(), service.NewGormPreferenceStore(db.DB), time.Now(), 30, zlog)
	if err != nil {
		log.Fatal("生成测试数据失败:", err)
	}

	fmt.Println("测试数据生成完成！")
	fmt.Printf("食物: 新增 %d 条\n", result.Foods)
	fmt.Printf("每日记录: 新增 %d 条\n", result.Entries)
}

// seed 写入演示食物和最近 days 天的记录，已有数据不会被覆盖
func seed(ctx context.Context, prefs service.PreferenceStore, now time.Time, days int, zlog *zap.Logger) (seedResult, error) {
	var result seedResult

	catalog := service.NewFoodCatalogStore(prefs, zlog)
	entries := service.NewDailyEntryStore(prefs, zlog)
	defer catalog.Close()
	defer entries.Close()

	if err := catalog.Load(ctx); err != nil {
		return result, err
	}
	if err := entries.Load(ctx); err != nil {
		return result, err
	}

	foods, err := createTestFoods(catalog)
	if err != nil {
		return result, err
	}
	result.Foods = foods

	result.Entries, err = createTestEntries(entries, catalog.Items(), now, days)
	if err != nil {
		return result, err
	}

	if err := catalog.Flush(ctx); err != nil {
		return result, err
	}
	return result, entries.Flush(ctx)
}

// 创建演示食物，目录非空时跳过
func createTestFoods(catalog *service.FoodCatalogStore) (int, error) {
	if len(catalog.Items()) > 0 {
		fmt.Println("食物目录已存在，跳过创建")
		return 0, nil
	}

	for _, food := range demoFoods {
		if _, err := catalog.Add(food.Name, food.Calories); err != nil {
			return 0, fmt.Errorf("add %s: %w", food.Name, err)
		}
	}

	fmt.Println("✅ 演示食物创建完成")
	return len(demoFoods), nil
}

// 为最近的日期生成记录，每隔几天留空一天，让日历上的标记有变化
func createTestEntries(entries *service.DailyEntryStore, foods []service.FoodItem, now time.Time, days int) (int, error) {
	if len(foods) == 0 {
		return 0, nil
	}

	created := 0
	for i := 0; i < days; i++ {
		if i%4 == 3 {
			continue
		}

		key := calendar.DateFromTime(now.AddDate(0, 0, -i)).Key()
		if _, exists := entries.Get(key); exists {
			continue
		}

		ids := make([]int, 0, 3)
		for j := 0; j < 1+i%3; j++ {
			ids = append(ids, foods[(i+j*3)%len(foods)].ID)
		}

		if _, err := entries.Update(key, ids, 250*(i%5)); err != nil {
			return created, err
		}
		created++
	}

	fmt.Println("✅ 每日记录创建完成")
	return created, nil
}
