package handler

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/fitit/internal/service"
	"github.com/gin-gonic/gin"
)

// CalculateBMI 根据 ?weight=（kg）与 ?height=（cm）计算 BMI
func (a *API) CalculateBMI(c *gin.Context) {
	weight, errWeight := strconv.ParseFloat(strings.TrimSpace(c.Query("weight")), 64)
	height, errHeight := strconv.ParseFloat(strings.TrimSpace(c.Query("height")), 64)
	if errWeight != nil || errHeight != nil {
		respondError(c, http.StatusBadRequest, "weight and height must be numbers")
		return
	}

	bmi, err := service.CalculateBMI(weight, height)
	if err != nil {
		respondError(c, http.StatusBadRequest, "weight and height must be positive")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bmi":      math.Round(bmi*100) / 100,
		"category": service.BMICategory(bmi),
	})
}
