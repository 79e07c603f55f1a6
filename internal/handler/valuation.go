package handler

import (
	"context"
	"errors"
	"net/http"

	"smartval/internal/model"
	"smartval/internal/service"
	"smartval/internal/store"

	"github.com/gin-gonic/gin"
)

// ValuationHandler handles valuation-related HTTP requests
type ValuationHandler struct {
	valuationService *service.ValuationService
	pool             *service.WorkerPool
	tasks            store.TaskStore
}

// NewValuationHandler creates a new valuation handler
func NewValuationHandler(valuationService *service.ValuationService, pool *service.WorkerPool, tasks store.TaskStore) *ValuationHandler {
	return &ValuationHandler{
		valuationService: valuationService,
		pool:             pool,
		tasks:            tasks,
	}
}

// Estimate handles POST /api/v1/estimate — synchronous valuation.
func (h *ValuationHandler) Estimate(c *gin.Context) {
	var attrs model.PropertyAttributes
	if err := c.ShouldBindJSON(&attrs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	result := h.valuationService.Predict(c.Request.Context(), &attrs)
	c.JSON(http.StatusOK, result)
}

// Enqueue handles POST /api/v1/valuations — queues a valuation and returns a
// task id for polling.
func (h *ValuationHandler) Enqueue(c *gin.Context) {
	var attrs model.PropertyAttributes
	if err := c.ShouldBindJSON(&attrs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	id, err := h.pool.Submit(c.Request.Context(), "valuation", func(ctx context.Context) (any, error) {
		return h.valuationService.Predict(ctx, &attrs), nil
	})
	if err != nil {
		if errors.Is(err, service.ErrQueueFull) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Server busy, try again later"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue valuation: " + err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"task_id": id})
}

// GetTask handles GET /api/v1/tasks/:id — poll endpoint for valuations and
// imports alike.
func (h *ValuationHandler) GetTask(c *gin.Context) {
	rec, err := h.tasks.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch task: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, rec)
}

// Districts handles GET /api/v1/districts?city= — administrative districts for
// the address form.
func (h *ValuationHandler) Districts(c *gin.Context) {
	city := c.Query("city")
	if city == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required query parameter: city"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"city": city, "towns": model.Districts(city)})
}
