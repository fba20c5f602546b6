package calendar

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidKey 在日期 key 无法解析或对应不存在的日期时返回
var ErrInvalidKey = errors.New("invalid date key")

// Date 表示一个日历日
// Month 取值 0-11，与 dateKey 中的 month+1 约定对应
type Date struct {
	Day   int
	Month int
	Year  int
}

// DateFromTime 截取时间的年月日
func DateFromTime(t time.Time) Date {
	return Date{Day: t.Day(), Month: int(t.Month()) - 1, Year: t.Year()}
}

// Key 生成不补零的 "{year}-{month+1}-{day}" 日志 key
func (d Date) Key() string {
	return fmt.Sprintf("%d-%d-%d", d.Year, d.Month+1, d.Day)
}

// DisplayString 生成 "{day}.{month+1}.{year}" 展示文本
func (d Date) DisplayString() string {
	return fmt.Sprintf("%d.%d.%d", d.Day, d.Month+1, d.Year)
}

// Valid 判断日期是否真实存在
func (d Date) Valid() bool {
	if d.Month < 0 || d.Month > 11 || d.Day < 1 {
		return false
	}
	return d.Day <= DaysInMonth(d.Month, d.Year)
}

// Time 返回该日零点
func (d Date) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(d.Year, time.Month(d.Month+1), d.Day, 0, 0, 0, 0, loc)
}

// Before 按日历顺序比较
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// ParseKey 解析 Key 生成的文本。带前导零的写法会被拒绝，保证 ParseKey(k).Key() == k。
func ParseKey(key string) (Date, error) {
	parts := strings.Split(strings.TrimSpace(key), "-")
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	values := make([]int, 3)
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || strconv.Itoa(n) != part {
			return Date{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
		values[i] = n
	}

	date := Date{Year: values[0], Month: values[1] - 1, Day: values[2]}
	if !date.Valid() {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return date, nil
}

// DaysInMonth 返回指定月份的天数，月份越界时先归一化
func DaysInMonth(month, year int) int {
	month, year = Normalize(month, year)
	// 下个月的第 0 天即本月最后一天
	return time.Date(year, time.Month(month+2), 0, 0, 0, 0, 0, time.UTC).Day()
}

// Normalize 将越界的月份折算到 0-11，并相应调整年份
func Normalize(month, year int) (int, int) {
	year += month / 12
	month %= 12
	if month < 0 {
		month += 12
		year--
	}
	return month, year
}

// NextMonth 返回下一个月，十二月之后进入下一年一月
func NextMonth(month, year int) (int, int) {
	return Normalize(month+1, year)
}

// PreviousMonth 返回上一个月，一月之前回到上一年十二月
func PreviousMonth(month, year int) (int, int) {
	return Normalize(month-1, year)
}
