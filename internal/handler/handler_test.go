package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/fitit/internal/db"
	"github.com/fitit/internal/service"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

type testEnv struct {
	api   *API
	prefs *service.MemoryPreferenceStore
}

func setupTestAPI(t *testing.T, initial map[string]string) testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	prefs := service.NewMemoryPreferenceStore(initial)
	catalog := service.NewFoodCatalogStore(prefs, nil)
	entries := service.NewDailyEntryStore(prefs, nil)
	if err := catalog.Load(context.Background()); err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}
	if err := entries.Load(context.Background()); err != nil {
		t.Fatalf("failed to load entries: %v", err)
	}
	t.Cleanup(func() {
		catalog.Close()
		entries.Close()
	})

	api := NewAPI(catalog, entries, nil, "pl")
	api.now = func() time.Time {
		return time.Date(2024, time.January, 15, 10, 30, 0, 0, time.UTC)
	}
	return testEnv{api: api, prefs: prefs}
}

func (e testEnv) router() *gin.Engine {
	r := gin.New()
	r.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("test-secret"))))
	r.GET("/calendar", e.api.GetCalendar)
	r.POST("/calendar/next", e.api.NextMonth)
	r.POST("/calendar/prev", e.api.PreviousMonth)
	r.GET("/foods", e.api.ListFoods)
	r.POST("/foods", e.api.CreateFood)
	r.DELETE("/foods/:id", e.api.DeleteFood)
	r.GET("/entries", e.api.ListEntries)
	r.GET("/entries/:date", e.api.GetEntry)
	r.PUT("/entries/:date", e.api.UpdateEntry)
	r.GET("/bmi", e.api.CalculateBMI)
	return r
}

func performJSON(r http.Handler, method, target string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dst); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
}

func TestCreateFoodAssignsSequentialIDs(t *testing.T) {
	env := setupTestAPI(t, nil)
	r := env.router()

	w := performJSON(r, http.MethodPost, "/foods", gin.H{"name": "Apple", "calories": 52})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	w = performJSON(r, http.MethodPost, "/foods", gin.H{"name": "Bread", "calories": 265})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", w.Code)
	}

	var created struct {
		Food service.FoodItem `json:"food"`
	}
	decodeBody(t, w, &created)
	if created.Food.ID != 2 || created.Food.Name != "Bread" || created.Food.Calories != 265 {
		t.Fatalf("unexpected food: %+v", created.Food)
	}

	if err := env.api.catalog.Flush(context.Background()); err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	raw, ok, _ := env.prefs.Get(context.Background(), db.PreferenceKeyFoodItems)
	if !ok || raw != `[{"id":1,"name":"Apple","calories":52},{"id":2,"name":"Bread","calories":265}]` {
		t.Fatalf("unexpected persisted catalog: %q", raw)
	}
}

func TestCreateFoodAcceptsForm(t *testing.T) {
	env := setupTestAPI(t, nil)
	r := env.router()

	form := url.Values{"name": {"  Banana "}, "calories": {"89"}}
	req := httptest.NewRequest(http.MethodPost, "/foods", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	items := env.api.catalog.Items()
	if len(items) != 1 || items[0].Name != "Banana" {
		t.Fatalf("expected trimmed name, got %+v", items)
	}
}

func TestCreateFoodRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		body interface{}
	}{
		{name: "blank name", body: gin.H{"name": "   ", "calories": 10}},
		{name: "missing calories", body: gin.H{"name": "Soup"}},
		{name: "negative calories", body: gin.H{"name": "Soup", "calories": -1}},
		{name: "non numeric calories", body: gin.H{"name": "Soup", "calories": "abc"}},
		{name: "markup in name", body: gin.H{"name": "Ser <Gouda>", "calories": 350}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestAPI(t, nil)
			w := performJSON(env.router(), http.MethodPost, "/foods", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d: %s", w.Code, w.Body.String())
			}
			if len(env.api.catalog.Items()) != 0 {
				t.Fatalf("expected catalog to stay empty")
			}
		})
	}
}

func TestListFoodsFiltersBySearch(t *testing.T) {
	env := setupTestAPI(t, map[string]string{
		db.PreferenceKeyFoodItems: `[{"id":1,"name":"Apple","calories":52},{"id":2,"name":"Pineapple","calories":50},{"id":3,"name":"Bread","calories":265}]`,
	})

	w := performJSON(env.router(), http.MethodGet, "/foods?search=APPLE", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp struct {
		Foods []service.FoodItem `json:"foods"`
		Count int                `json:"count"`
	}
	decodeBody(t, w, &resp)
	if resp.Count != 2 || resp.Foods[0].Name != "Apple" || resp.Foods[1].Name != "Pineapple" {
		t.Fatalf("unexpected search result: %+v", resp)
	}
}

func TestListFoodsEmptyCatalogIsArray(t *testing.T) {
	env := setupTestAPI(t, nil)
	r := env.router()

	for _, target := range []string{"/foods", "/foods?search=x"} {
		w := performJSON(r, http.MethodGet, target, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", w.Code)
		}
		if !strings.Contains(w.Body.String(), `"foods":[]`) {
			t.Fatalf("expected empty array for %s, got %s", target, w.Body.String())
		}
	}
}

func TestDeleteFood(t *testing.T) {
	env := setupTestAPI(t, map[string]string{
		db.PreferenceKeyFoodItems: `[{"id":1,"name":"Apple","calories":52},{"id":2,"name":"Bread","calories":265}]`,
	})
	r := env.router()

	w := performJSON(r, http.MethodDelete, "/foods/1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if items := env.api.catalog.Items(); len(items) != 1 || items[0].ID != 2 {
		t.Fatalf("unexpected catalog after delete: %+v", items)
	}

	if w := performJSON(r, http.MethodDelete, "/foods/1", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 for removed food, got %d", w.Code)
	}
	if w := performJSON(r, http.MethodDelete, "/foods/abc", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for invalid id, got %d", w.Code)
	}
}

func TestUpdateAndGetEntry(t *testing.T) {
	env := setupTestAPI(t, map[string]string{
		db.PreferenceKeyFoodItems: `[{"id":1,"name":"Apple","calories":52},{"id":2,"name":"Bread","calories":265}]`,
	})
	r := env.router()

	w := performJSON(r, http.MethodPut, "/entries/2024-1-15", gin.H{"foodIds": []int{1, 2, 1, 9}, "waterMl": 500})
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d: %s", w.Code, w.Body.String())
	}

	w = performJSON(r, http.MethodGet, "/entries/2024-1-15", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp struct {
		Entry entryView `json:"entry"`
	}
	decodeBody(t, w, &resp)
	if resp.Entry.Display != "15.1.2024" {
		t.Fatalf("unexpected display date %q", resp.Entry.Display)
	}
	if resp.Entry.TotalCalories != 52+265+52 {
		t.Fatalf("unexpected total calories %d", resp.Entry.TotalCalories)
	}
	if len(resp.Entry.Foods) != 3 || len(resp.Entry.MissingIDs) != 1 || resp.Entry.MissingIDs[0] != 9 {
		t.Fatalf("unexpected resolved foods: %+v", resp.Entry)
	}
	if resp.Entry.WaterMl != 500 || !resp.Entry.HasEntries {
		t.Fatalf("unexpected entry: %+v", resp.Entry)
	}
}

func TestUpdateEntryDefaultsWaterToZero(t *testing.T) {
	env := setupTestAPI(t, nil)

	w := performJSON(env.router(), http.MethodPut, "/entries/2024-2-29", gin.H{"foodIds": []int{}})
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d", w.Code)
	}

	entry, ok := env.api.entries.Get("2024-2-29")
	if !ok || entry.WaterMl != 0 || len(entry.FoodIDs) != 0 {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if env.api.entries.HasEntries("2024-2-29") {
		t.Fatalf("empty entry should not be marked")
	}
}

func TestEntryErrors(t *testing.T) {
	env := setupTestAPI(t, nil)
	r := env.router()

	if w := performJSON(r, http.MethodPut, "/entries/2024-01-15", gin.H{"foodIds": []int{1}}); w.Code != http.StatusBadRequest {
		t.Fatalf("expected padded key to be rejected, got %d", w.Code)
	}
	if w := performJSON(r, http.MethodPut, "/entries/2023-2-29", gin.H{"foodIds": []int{1}}); w.Code != http.StatusBadRequest {
		t.Fatalf("expected impossible date to be rejected, got %d", w.Code)
	}
	if w := performJSON(r, http.MethodPut, "/entries/2024-1-15", gin.H{"waterMl": -5}); w.Code != http.StatusBadRequest {
		t.Fatalf("expected negative water to be rejected, got %d", w.Code)
	}
	if w := performJSON(r, http.MethodGet, "/entries/2024-1-16", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected missing entry to return 404, got %d", w.Code)
	}
	if w := performJSON(r, http.MethodGet, "/entries/yesterday", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected malformed key to return 400, got %d", w.Code)
	}
}

func TestListEntriesChronological(t *testing.T) {
	env := setupTestAPI(t, map[string]string{
		db.PreferenceKeyDailyEntries: `[{"date":"2024-10-1","foodIds":[],"waterMl":250},{"date":"2024-2-1","foodIds":[3],"waterMl":0}]`,
	})

	w := performJSON(env.router(), http.MethodGet, "/entries", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp struct {
		Entries []entryView `json:"entries"`
	}
	decodeBody(t, w, &resp)
	if len(resp.Entries) != 2 || resp.Entries[0].Date != "2024-2-1" || resp.Entries[1].Date != "2024-10-1" {
		t.Fatalf("unexpected order: %+v", resp.Entries)
	}
}

func TestGetCalendarMarksEntries(t *testing.T) {
	env := setupTestAPI(t, map[string]string{
		db.PreferenceKeyFoodItems:    `[{"id":1,"name":"Apple","calories":52}]`,
		db.PreferenceKeyDailyEntries: `[{"date":"2024-1-15","foodIds":[1,1],"waterMl":300},{"date":"2024-2-3","foodIds":[],"waterMl":100}]`,
	})

	w := performJSON(env.router(), http.MethodGet, "/calendar", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var payload calendarPayload
	decodeBody(t, w, &payload)
	if payload.Month != 0 || payload.Year != 2024 {
		t.Fatalf("expected January 2024, got %d/%d", payload.Month, payload.Year)
	}
	if payload.Title != "Styczeń 2024" || payload.Locale != "pl_PL" {
		t.Fatalf("unexpected title %q", payload.Title)
	}
	if len(payload.Weeks) != 6 || len(payload.Weekdays) != 7 || payload.Weekdays[0] != "Pn" {
		t.Fatalf("unexpected grid shape: %d weeks, weekdays %v", len(payload.Weeks), payload.Weekdays)
	}

	first := payload.Weeks[0][0]
	if first.Number != 1 || first.Month != 0 || !first.IsCurrentMonth {
		t.Fatalf("January 2024 should start on Monday the 1st, got %+v", first)
	}

	var today, lastFebCell calendarCell
	marked := 0
	for _, week := range payload.Weeks {
		for _, cell := range week {
			if cell.IsToday {
				today = cell
			}
			if cell.HasEntries {
				marked++
			}
			if cell.Key == "2024-2-3" {
				lastFebCell = cell
			}
		}
	}
	if today.Key != "2024-1-15" || !today.HasEntries || today.TotalCalories != 104 || today.WaterMl != 300 {
		t.Fatalf("unexpected today cell: %+v", today)
	}
	if !lastFebCell.HasEntries || lastFebCell.IsCurrentMonth {
		t.Fatalf("trailing February cell should be marked: %+v", lastFebCell)
	}
	if marked != 2 {
		t.Fatalf("expected 2 marked cells, got %d", marked)
	}
	if payload.Summary.ActiveDays != 1 || payload.Summary.TotalCalories != 104 || payload.Summary.TotalWaterMl != 300 {
		t.Fatalf("summary should only count the displayed month: %+v", payload.Summary)
	}
}

func TestGetCalendarQueryValidation(t *testing.T) {
	env := setupTestAPI(t, nil)
	r := env.router()

	for _, target := range []string{"/calendar?month=12", "/calendar?month=-1", "/calendar?month=x", "/calendar?year=0"} {
		if w := performJSON(r, http.MethodGet, target, nil); w.Code != http.StatusBadRequest {
			t.Fatalf("expected %s to return 400, got %d", target, w.Code)
		}
	}

	w := performJSON(r, http.MethodGet, "/calendar?month=1&year=2021&lang=en", nil)
	var payload calendarPayload
	decodeBody(t, w, &payload)
	if got := w.Header().Get("Content-Language"); got != "en-US" {
		t.Fatalf("unexpected content language %q", got)
	}
	if payload.Title != "February 2021" || payload.Weekdays[0] != "Mo" {
		t.Fatalf("unexpected english labels: %q %v", payload.Title, payload.Weekdays)
	}
}

func TestCalendarNavigationUsesSession(t *testing.T) {
	env := setupTestAPI(t, nil)
	r := env.router()

	w := performJSON(r, http.MethodPost, "/calendar/prev", nil)
	var payload calendarPayload
	decodeBody(t, w, &payload)
	if payload.Month != 11 || payload.Year != 2023 {
		t.Fatalf("expected December 2023, got %d/%d", payload.Month, payload.Year)
	}
	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatalf("expected session cookie")
	}

	w = performJSON(r, http.MethodPost, "/calendar/next", nil, cookies...)
	decodeBody(t, w, &payload)
	if payload.Month != 0 || payload.Year != 2024 {
		t.Fatalf("expected January 2024, got %d/%d", payload.Month, payload.Year)
	}

	w = performJSON(r, http.MethodPost, "/calendar/next", nil, w.Result().Cookies()...)
	decodeBody(t, w, &payload)
	if payload.Month != 1 || payload.Year != 2024 {
		t.Fatalf("expected February 2024, got %d/%d", payload.Month, payload.Year)
	}

	w = performJSON(r, http.MethodGet, "/calendar", nil, w.Result().Cookies()...)
	decodeBody(t, w, &payload)
	if payload.Month != 1 {
		t.Fatalf("expected session month to be kept, got %d", payload.Month)
	}
}

func TestHandlersReportLoading(t *testing.T) {
	gin.SetMode(gin.TestMode)
	prefs := service.NewMemoryPreferenceStore(nil)
	catalog := service.NewFoodCatalogStore(prefs, nil)
	entries := service.NewDailyEntryStore(prefs, nil)
	t.Cleanup(func() {
		catalog.Close()
		entries.Close()
	})

	env := testEnv{api: NewAPI(catalog, entries, nil, ""), prefs: prefs}
	if w := performJSON(env.router(), http.MethodGet, "/foods", nil); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503 before load, got %d", w.Code)
	}
}

func TestCalculateBMIHandler(t *testing.T) {
	env := setupTestAPI(t, nil)
	r := env.router()

	w := performJSON(r, http.MethodGet, "/bmi?weight=70&height=175", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var resp struct {
		BMI      float64 `json:"bmi"`
		Category string  `json:"category"`
	}
	decodeBody(t, w, &resp)
	if resp.BMI != 22.86 || resp.Category != service.BMICategory(22.86) {
		t.Fatalf("unexpected bmi response: %+v", resp)
	}

	for _, target := range []string{"/bmi?weight=70", "/bmi?weight=abc&height=170", "/bmi?weight=0&height=170"} {
		if w := performJSON(r, http.MethodGet, target, nil); w.Code != http.StatusBadRequest {
			t.Fatalf("expected %s to return 400, got %d", target, w.Code)
		}
	}
}
