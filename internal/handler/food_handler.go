package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/fitit/internal/service"
	"github.com/gin-gonic/gin"
)

type foodPayload struct {
	Name     string `json:"name"`
	Calories *int   `json:"calories"`
}

// ListFoods 返回食物目录，支持 ?search= 名称过滤
func (a *API) ListFoods(c *gin.Context) {
	if a.loading(c) {
		return
	}

	items := a.catalog.Search(c.Query("search"))
	c.JSON(http.StatusOK, gin.H{"foods": items, "count": len(items)})
}

// CreateFood 新增食物
func (a *API) CreateFood(c *gin.Context) {
	if a.loading(c) {
		return
	}

	name, calories, ok := parseFoodInput(c)
	if !ok {
		return
	}

	item, err := a.catalog.Add(name, calories)
	if err != nil {
		handleFoodError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"food": item})
}

// DeleteFood 删除食物；已引用该食物的每日记录保留原 ID
func (a *API) DeleteFood(c *gin.Context) {
	if a.loading(c) {
		return
	}

	id, err := parseIntParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid food id")
		return
	}

	item, err := a.catalog.Get(id)
	if err != nil {
		handleFoodError(c, err)
		return
	}

	a.catalog.Remove(item)
	c.JSON(http.StatusOK, gin.H{"deleted": true, "food": item})
}

func parseFoodInput(c *gin.Context) (string, int, bool) {
	var payload foodPayload

	if strings.Contains(c.GetHeader("Content-Type"), "application/json") {
		if !bindJSON(c, &payload, "calories must be a number") {
			return "", 0, false
		}
	} else {
		payload.Name = c.PostForm("name")
		if raw := strings.TrimSpace(c.PostForm("calories")); raw != "" {
			value, err := strconv.Atoi(raw)
			if err != nil {
				respondError(c, http.StatusBadRequest, "calories must be a number")
				return "", 0, false
			}
			payload.Calories = &value
		}
	}

	if strings.TrimSpace(payload.Name) == "" {
		respondError(c, http.StatusBadRequest, "name is required")
		return "", 0, false
	}
	if payload.Calories == nil {
		respondError(c, http.StatusBadRequest, "calories are required")
		return "", 0, false
	}

	return payload.Name, *payload.Calories, true
}

func handleFoodError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrFoodNotFound):
		respondError(c, http.StatusNotFound, "food not found")
	case errors.Is(err, service.ErrFoodNameRequired):
		respondError(c, http.StatusBadRequest, "name is required")
	case errors.Is(err, service.ErrFoodNameMarkup):
		respondError(c, http.StatusBadRequest, "name must not contain markup")
	case errors.Is(err, service.ErrFoodNameTooLong):
		respondError(c, http.StatusBadRequest, "name is too long")
	case errors.Is(err, service.ErrFoodInvalidCalories):
		respondError(c, http.StatusBadRequest, "calories must not be negative")
	default:
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "operation failed")
	}
}
