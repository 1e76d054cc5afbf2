package http

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/serenityspa/medsoft-availability-generator/internal/config"
	"github.com/serenityspa/medsoft-availability-generator/internal/core/domain"
	"github.com/serenityspa/medsoft-availability-generator/internal/core/ports/in"
	"github.com/serenityspa/medsoft-availability-generator/internal/core/services/availability_service"
	"github.com/serenityspa/medsoft-availability-generator/internal/utils"
)

type AvailabilityController struct {
	availability in.AvailabilityUseCase
	precompute   in.PrecomputeUseCase
	cfg          *config.Config
}

func NewAvailabilityController(availability in.AvailabilityUseCase, precompute in.PrecomputeUseCase, cfg *config.Config) *AvailabilityController {
	return &AvailabilityController{
		availability: availability,
		precompute:   precompute,
		cfg:          cfg,
	}
}

func (c *AvailabilityController) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	api.Use(c.basicAuth())
	{
		api.GET("/locations", c.listLocations)
		api.GET("/categories", c.listCategories)
		api.GET("/categories/:category/services", c.listServices)
		api.GET("/slots", c.listSlots)
		api.POST("/cache/precompute", c.runPrecompute)
		api.POST("/cache/invalidate", c.invalidateCache)
	}
}

func (c *AvailabilityController) listLocations(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"locations": c.availability.ListLocations(ctx.Request.Context()),
	})
}

func (c *AvailabilityController) listCategories(ctx *gin.Context) {
	locationID, ok := queryInt(ctx, "locationId")
	if !ok {
		return
	}

	categories, err := c.availability.ListCategories(ctx.Request.Context(), locationID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (c *AvailabilityController) listServices(ctx *gin.Context) {
	locationID, ok := queryInt(ctx, "locationId")
	if !ok {
		return
	}

	services, err := c.availability.ListServicesForCategory(ctx.Request.Context(), ctx.Param("category"), locationID)
	if err != nil {
		if errors.Is(err, domain.ErrCategoryNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"services": services})
}

// listSlots отдает слоты на один день. Промах кэша в режиме cache-only -
// это не ошибка и не "нет свободных мест": клиент получает status=no-data
// и может показать нейтральную заглушку.
func (c *AvailabilityController) listSlots(ctx *gin.Context) {
	locationID, ok := queryInt(ctx, "locationId")
	if !ok {
		return
	}

	serviceID, ok := queryInt(ctx, "serviceId")
	if !ok {
		return
	}

	day, err := utils.ParseDay(ctx.Query("date"), c.cfg.ClinicLocation())
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format, expected YYYY-MM-DD"})
		return
	}

	result, err := c.availability.ListAvailableSlots(ctx.Request.Context(), locationID, serviceID, day)
	if err != nil {
		if errors.Is(err, domain.ErrServiceNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Service not found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"status": result.Status,
		"date":   day.Format(domain.DateKey),
		"slots":  result.Slots,
	})
}

func (c *AvailabilityController) runPrecompute(ctx *gin.Context) {
	report, err := c.precompute.Precompute(ctx.Request.Context())
	if err != nil {
		if errors.Is(err, availability_service.ErrPrecomputeRunning) {
			ctx.JSON(http.StatusConflict, gin.H{"error": "Precompute already running"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"report": report})
}

type InvalidateCacheRequest struct {
	LocationID int    `json:"locationId"`
	ServiceID  int    `json:"serviceId"`
	Date       string `json:"date"`
}

// invalidateCache чистит кэш по маске: непереданные части ключа
// трактуются как "любое значение".
func (c *AvailabilityController) invalidateCache(ctx *gin.Context) {
	var req InvalidateCacheRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var day time.Time
	if req.Date != "" {
		parsed, err := utils.ParseDay(req.Date, c.cfg.ClinicLocation())
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format, expected YYYY-MM-DD"})
			return
		}
		day = parsed
	}

	if err := c.precompute.InvalidateSlots(ctx.Request.Context(), req.LocationID, req.ServiceID, day); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func queryInt(ctx *gin.Context, name string) (int, bool) {
	raw := ctx.Query(name)
	if raw == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Missing required parameter: " + name})
		return 0, false
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid parameter: " + name})
		return 0, false
	}

	return value, true
}

func (c *AvailabilityController) basicAuth() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		username, password, hasAuth := ctx.Request.BasicAuth()
		if !hasAuth {
			ctx.Header("WWW-Authenticate", "Basic realm=Authorization Required")
			ctx.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		for _, client := range c.cfg.Auth.BasicClients {
			if subtle.ConstantTimeCompare([]byte(username), []byte(client.Username)) == 1 &&
				subtle.ConstantTimeCompare([]byte(password), []byte(client.Password)) == 1 {
				ctx.Next()
				return
			}
		}

		ctx.Header("WWW-Authenticate", "Basic realm=Authorization Required")
		ctx.AbortWithStatus(http.StatusUnauthorized)
	}
}
