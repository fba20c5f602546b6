package handler

import (
	"fmt"
	"net/http"

	"github.com/fitit/internal/calendar"
	"github.com/fitit/internal/locale"
	"github.com/fitit/internal/service"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	sessionMonthKey = "calendar_month"
	sessionYearKey  = "calendar_year"
)

type calendarCell struct {
	Number         int    `json:"number"`
	Month          int    `json:"month"`
	Year           int    `json:"year"`
	Key            string `json:"key"`
	IsCurrentMonth bool   `json:"isCurrentMonth"`
	IsToday        bool   `json:"isToday"`
	HasEntries     bool   `json:"hasEntries"`
	TotalCalories  int    `json:"totalCalories"`
	WaterMl        int    `json:"waterMl"`
}

type calendarSummary struct {
	ActiveDays    int `json:"activeDays"`
	TotalCalories int `json:"totalCalories"`
	TotalWaterMl  int `json:"totalWaterMl"`
}

type calendarPayload struct {
	Month    int              `json:"month"`
	Year     int              `json:"year"`
	Title    string           `json:"title"`
	Locale   string           `json:"locale"`
	Today    string           `json:"today"`
	Weekdays []string         `json:"weekdays"`
	Weeks    [][]calendarCell `json:"weeks"`
	Summary  calendarSummary  `json:"summary"`
}

// GetCalendar 返回指定月份的 6x7 月视图
// 未指定 month/year 时使用会话中的当前月份，再退回到今天所在月份
func (a *API) GetCalendar(c *gin.Context) {
	if a.loading(c) {
		return
	}

	month, year := a.displayedMonth(c)

	if raw := c.Query("month"); raw != "" {
		value, _, err := parseOptionalInt(raw)
		if err != nil || value < 0 || value > 11 {
			respondError(c, http.StatusBadRequest, "month must be between 0 and 11")
			return
		}
		month = value
	}
	if raw := c.Query("year"); raw != "" {
		value, _, err := parseOptionalInt(raw)
		if err != nil || value < 1 || value > 9999 {
			respondError(c, http.StatusBadRequest, "invalid year")
			return
		}
		year = value
	}

	a.rememberMonth(c, month, year)
	a.respondCalendar(c, month, year)
}

// NextMonth 将会话中的月份后移一个月
func (a *API) NextMonth(c *gin.Context) {
	a.shiftMonth(c, calendar.NextMonth)
}

// PreviousMonth 将会话中的月份前移一个月
func (a *API) PreviousMonth(c *gin.Context) {
	a.shiftMonth(c, calendar.PreviousMonth)
}

func (a *API) shiftMonth(c *gin.Context, shift func(month, year int) (int, int)) {
	if a.loading(c) {
		return
	}

	month, year := shift(a.displayedMonth(c))
	a.rememberMonth(c, month, year)
	a.respondCalendar(c, month, year)
}

func (a *API) respondCalendar(c *gin.Context, month, year int) {
	language := a.requestLanguage(c)
	c.Header("Content-Language", locale.PreferenceForLanguage(language).ContentLanguage)
	c.JSON(http.StatusOK, a.buildCalendarPayload(month, year, language))
}

func (a *API) buildCalendarPayload(month, year int, language string) calendarPayload {
	today := calendar.DateFromTime(a.today())
	cells := calendar.Build(month, year, today)
	month, year = calendar.Normalize(month, year)

	lookup := a.catalog.Lookup()
	snapshot := a.entries.Snapshot()

	payload := calendarPayload{
		Month:    month,
		Year:     year,
		Title:    fmt.Sprintf("%s %d", locale.MonthName(language, month), year),
		Locale:   locale.PreferenceForLanguage(language).Locale,
		Today:    today.Key(),
		Weekdays: locale.WeekdayHeaders(language),
	}

	for _, week := range calendar.Weeks(cells) {
		row := make([]calendarCell, 0, len(week))
		for _, cell := range week {
			item := calendarCell{
				Number:         cell.Number,
				Month:          cell.Month,
				Year:           cell.Year,
				Key:            cell.Key(),
				IsCurrentMonth: cell.IsCurrentMonth,
				IsToday:        cell.IsToday,
			}
			if entry, ok := snapshot[item.Key]; ok {
				item.HasEntries = entry.HasData()
				item.TotalCalories = service.SumCalories(entry.FoodIDs, lookup)
				item.WaterMl = entry.WaterMl
			}

			if cell.IsCurrentMonth && item.HasEntries {
				payload.Summary.ActiveDays++
				payload.Summary.TotalCalories += item.TotalCalories
				payload.Summary.TotalWaterMl += item.WaterMl
			}
			row = append(row, item)
		}
		payload.Weeks = append(payload.Weeks, row)
	}

	return payload
}

// displayedMonth 读取会话中的月份，缺失或损坏时使用今天
func (a *API) displayedMonth(c *gin.Context) (int, int) {
	today := a.today()
	month, year := int(today.Month())-1, today.Year()

	session := sessionFrom(c)
	if session == nil {
		return month, year
	}

	storedMonth, okMonth := session.Get(sessionMonthKey).(int)
	storedYear, okYear := session.Get(sessionYearKey).(int)
	if !okMonth || !okYear || storedMonth < 0 || storedMonth > 11 {
		return month, year
	}
	return storedMonth, storedYear
}

func (a *API) rememberMonth(c *gin.Context, month, year int) {
	session := sessionFrom(c)
	if session == nil {
		return
	}

	session.Set(sessionMonthKey, month)
	session.Set(sessionYearKey, year)
	if err := session.Save(); err != nil {
		c.Error(err)
	}
}

// sessionFrom 在未挂载会话中间件时返回 nil
func sessionFrom(c *gin.Context) sessions.Session {
	if _, exists := c.Get(sessions.DefaultKey); !exists {
		return nil
	}
	return sessions.Default(c)
}
