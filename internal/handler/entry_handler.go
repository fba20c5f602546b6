package handler

import (
	"errors"
	"net/http"

	"github.com/fitit/internal/calendar"
	"github.com/fitit/internal/service"
	"github.com/gin-gonic/gin"
)

type entryPayload struct {
	FoodIDs []int `json:"foodIds"`
	WaterMl *int  `json:"waterMl"`
}

type entryView struct {
	Date          string             `json:"date"`
	Display       string             `json:"display"`
	FoodIDs       []int              `json:"foodIds"`
	Foods         []service.FoodItem `json:"foods"`
	MissingIDs    []int              `json:"missingIds,omitempty"`
	WaterMl       int                `json:"waterMl"`
	TotalCalories int                `json:"totalCalories"`
	HasEntries    bool               `json:"hasEntries"`
}

// ListEntries 按日期顺序返回全部每日记录
func (a *API) ListEntries(c *gin.Context) {
	if a.loading(c) {
		return
	}

	lookup := a.catalog.Lookup()
	entries := a.entries.Entries()

	items := make([]entryView, 0, len(entries))
	for _, entry := range entries {
		items = append(items, toEntryView(entry, lookup))
	}
	c.JSON(http.StatusOK, gin.H{"entries": items})
}

// GetEntry 返回某天的记录，无记录时 404
func (a *API) GetEntry(c *gin.Context) {
	if a.loading(c) {
		return
	}

	key := c.Param("date")
	if _, err := calendar.ParseKey(key); err != nil {
		respondError(c, http.StatusBadRequest, "invalid date key")
		return
	}

	entry, ok := a.entries.Get(key)
	if !ok {
		respondError(c, http.StatusNotFound, "no entry for this day")
		return
	}

	c.JSON(http.StatusOK, gin.H{"entry": toEntryView(entry, a.catalog.Lookup())})
}

// UpdateEntry 整体替换某天的记录；写盘在后台完成，因此返回 202
func (a *API) UpdateEntry(c *gin.Context) {
	if a.loading(c) {
		return
	}

	var payload entryPayload
	if !bindJSON(c, &payload, "invalid entry payload") {
		return
	}

	water := 0
	if payload.WaterMl != nil {
		water = *payload.WaterMl
	}

	entry, err := a.entries.Update(c.Param("date"), payload.FoodIDs, water)
	if err != nil {
		handleEntryError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"entry": toEntryView(entry, a.catalog.Lookup())})
}

func toEntryView(entry service.DailyEntry, lookup service.FoodLookup) entryView {
	view := entryView{
		Date:          entry.Date,
		Display:       entry.Date,
		FoodIDs:       entry.FoodIDs,
		Foods:         make([]service.FoodItem, 0, len(entry.FoodIDs)),
		WaterMl:       entry.WaterMl,
		TotalCalories: service.SumCalories(entry.FoodIDs, lookup),
		HasEntries:    entry.HasData(),
	}
	if view.FoodIDs == nil {
		view.FoodIDs = []int{}
	}
	if date, err := calendar.ParseKey(entry.Date); err == nil {
		view.Display = date.DisplayString()
	}

	for _, id := range entry.FoodIDs {
		if item, ok := lookup.Find(id); ok {
			view.Foods = append(view.Foods, item)
		} else {
			view.MissingIDs = append(view.MissingIDs, id)
		}
	}
	return view
}

func handleEntryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidDateKey):
		respondError(c, http.StatusBadRequest, "invalid date key")
	case errors.Is(err, service.ErrInvalidWater):
		respondError(c, http.StatusBadRequest, "water amount must not be negative")
	default:
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "operation failed")
	}
}
