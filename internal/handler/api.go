package handler

import (
	"net/http"
	"time"

	"github.com/fitit/internal/locale"
	"github.com/fitit/internal/logger"
	"github.com/fitit/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	catalog  *service.FoodCatalogStore
	entries  *service.DailyEntryStore
	logger   *zap.Logger
	language string
	now      func() time.Time
}

// NewAPI constructs a handler set around the injected stores.
func NewAPI(catalog *service.FoodCatalogStore, entries *service.DailyEntryStore, log *zap.Logger, language string) *API {
	normalized := locale.NormalizeLanguage(language)
	if normalized == "" {
		normalized = locale.LanguagePolish
	}

	return &API{
		catalog:  catalog,
		entries:  entries,
		logger:   logger.OrNop(log),
		language: normalized,
		now:      time.Now,
	}
}

// requestLanguage 依次取 ?lang=、Accept-Language、默认语言
func (a *API) requestLanguage(c *gin.Context) string {
	if lang := locale.NormalizeLanguage(c.Query("lang")); lang != "" {
		return lang
	}
	if lang := locale.LanguageFromAcceptLanguage(c.GetHeader("Accept-Language")); lang != "" {
		return lang
	}
	return a.language
}

func (a *API) today() time.Time {
	now := a.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

func (a *API) loading(c *gin.Context) bool {
	if a.catalog.Loaded() && a.entries.Loaded() {
		return false
	}
	respondError(c, http.StatusServiceUnavailable, "data is still loading")
	return true
}
