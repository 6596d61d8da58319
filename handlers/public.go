package handlers

import (
	"net/http"

	"pizza-ordering-api/apperrors"
	"pizza-ordering-api/models"
	"pizza-ordering-api/pricing"
	"pizza-ordering-api/statemachine"

	"github.com/gin-gonic/gin"
)

const serviceName = "Cowabunga Pizza Ordering API"

// Welcome is the API root.
func (h *Handler) Welcome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome to the " + serviceName,
		"menu":    "/api/menu",
		"docs":    "/api/state-machine",
		"health":  "/health",
	})
}

// Health reports liveness and whether the database answers.
func (h *Handler) Health(c *gin.Context) {
	status, code := "healthy", http.StatusOK
	if h.db != nil {
		sqlDB, err := h.db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			h.log.Error(c.Request.Context(), "health.db_unreachable", err)
			status, code = "unhealthy", http.StatusServiceUnavailable
		}
	}
	c.JSON(code, gin.H{
		"status":  status,
		"service": serviceName,
		"version": "1.0.0",
	})
}

// GetMenu returns the available builder components, builder rules and the
// available preset items.
func (h *Handler) GetMenu(c *gin.Context) {
	ctx := c.Request.Context()
	snap := h.catalog.Available(ctx)
	presets, err := h.catalog.AvailablePresets(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"sizes":        snap.Sizes,
		"bases":        snap.Bases,
		"sauces":       snap.Sauces,
		"cheeses":      snap.Cheeses,
		"toppings":     snap.Toppings,
		"rules":        snap.Rules,
		"presetPizzas": presets,
	})
}

// PriceQuote prices a pizza configuration without touching the cart.
func (h *Handler) PriceQuote(c *gin.Context) {
	var req pricing.Request
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, apperrors.Validation("Invalid pizza configuration"))
		return
	}
	quote, err := pricing.Calculate(h.catalog.Available(c.Request.Context()), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

// GetStateMachineInfo describes the order workflow.
func (h *Handler) GetStateMachineInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"stateMachine":   statemachine.GetAllTransitions(),
		"statuses":       statemachine.AllowedStrings(),
		"details":        statemachine.Describe(),
		"initialState":   models.StatusPending,
		"terminalStates": statemachine.TerminalStatuses(),
		"permissive":     true,
		"description":    "Orders may be set to any listed status; the workflow shows the usual forward path.",
	})
}
