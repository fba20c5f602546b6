package db

import "gorm.io/gorm"

// Preference 存储按 key 读写的整段文本，对应移动端的本地偏好容器。
type Preference struct {
	gorm.Model
	Key   string `gorm:"size:100;uniqueIndex;not null"`
	Value string `gorm:"type:text"`
}

// TableName 自定义表名以保持命名一致。
func (Preference) TableName() string {
	return "preferences"
}

const (
	// PreferenceKeyFoodItems 食物目录 JSON 数组
	PreferenceKeyFoodItems = "food_items"
	// PreferenceKeyDailyEntries 每日记录 JSON 数组
	PreferenceKeyDailyEntries = "daily_entries"
)
