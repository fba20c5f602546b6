package calendar

import "time"

const (
	// GridSize 月视图固定 6 周
	GridSize = 42
	// DaysPerWeek 每行天数
	DaysPerWeek = 7
)

// 与常见日历库一致的星期编号：周日=1 ... 周六=7
const (
	nativeSunday = 1
	nativeMonday = 2
)

// DayCell 月视图中的一个格子，可能属于相邻月份
type DayCell struct {
	Number         int  `json:"number"`
	Month          int  `json:"month"`
	Year           int  `json:"year"`
	IsCurrentMonth bool `json:"isCurrentMonth"`
	IsToday        bool `json:"isToday"`
}

// Date 返回格子真实对应的日期
func (c DayCell) Date() Date {
	return Date{Day: c.Number, Month: c.Month, Year: c.Year}
}

// Key 返回格子对应的日志 key
func (c DayCell) Key() string {
	return c.Date().Key()
}

// Build 生成以周一开头的 42 格月视图。
// 依次输出上月末尾 offset 天、本月全部天数、下月开头补足剩余格子；
// 月份越界时先归一化。
func Build(month, year int, today Date) []DayCell {
	month, year = Normalize(month, year)

	first := time.Date(year, time.Month(month+1), 1, 0, 0, 0, 0, time.UTC)
	offset := (nativeWeekday(first) - nativeMonday + 7) % 7

	daysInMonth := DaysInMonth(month, year)
	prevMonth, prevYear := PreviousMonth(month, year)
	prevMonthDays := DaysInMonth(prevMonth, prevYear)
	nextMonth, nextYear := NextMonth(month, year)

	cells := make([]DayCell, 0, GridSize)
	emit := func(number, m, y int, current bool) {
		cells = append(cells, DayCell{
			Number:         number,
			Month:          m,
			Year:           y,
			IsCurrentMonth: current,
			IsToday:        today == Date{Day: number, Month: m, Year: y},
		})
	}

	for i := 0; i < offset; i++ {
		emit(prevMonthDays-offset+i+1, prevMonth, prevYear, false)
	}

	for day := 1; day <= daysInMonth; day++ {
		emit(day, month, year, true)
	}

	remaining := GridSize - len(cells)
	for day := 1; day <= remaining; day++ {
		emit(day, nextMonth, nextYear, false)
	}

	return cells
}

// Weeks 将格子按 7 天一行切分
func Weeks(cells []DayCell) [][]DayCell {
	weeks := make([][]DayCell, 0, (len(cells)+DaysPerWeek-1)/DaysPerWeek)
	for start := 0; start < len(cells); start += DaysPerWeek {
		end := min(start+DaysPerWeek, len(cells))
		weeks = append(weeks, cells[start:end])
	}
	return weeks
}

func nativeWeekday(t time.Time) int {
	return int(t.Weekday()) + nativeSunday
}
