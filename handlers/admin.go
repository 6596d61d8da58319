package handlers

import (
	"bytes"
	"net/http"
	"strings"

	"pizza-ordering-api/apperrors"
	"pizza-ordering-api/middleware"
	"pizza-ordering-api/models"
	"pizza-ordering-api/report"
	"pizza-ordering-api/statemachine"

	"github.com/gin-gonic/gin"
)

// AdminListOrders returns every order, most recent first, with a count per
// status. ?status= narrows the list.
func (h *Handler) AdminListOrders(c *gin.Context) {
	all, err := h.orders.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	filter := models.OrderStatus(strings.TrimSpace(c.Query("status")))
	if filter != "" && !filter.IsValid() {
		h.fail(c, statemachine.CanTransition("", filter))
		return
	}

	summary := map[string]int{}
	list := make([]models.Order, 0, len(all))
	for _, o := range all {
		summary[string(o.Status)]++
		if filter == "" || o.Status == filter {
			list = append(list, o)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"orderSummary": summary,
		"count":        len(list),
		"orders":       list,
	})
}

// AdminOrderHistory returns the status audit trail for one order.
func (h *Handler) AdminOrderHistory(c *gin.Context) {
	id, ok := h.orderID(c)
	if !ok {
		return
	}
	rows, err := h.orders.History(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orderId": id, "history": rows})
}

type UpdateOrderStatusRequest struct {
	Status *string `json:"status"`
}

// UpdateOrderStatus sets an order to any workflow status.
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	id, ok := h.orderID(c)
	if !ok {
		return
	}
	var req UpdateOrderStatusRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	if req.Status == nil || *req.Status == "" {
		h.fail(c, apperrors.Validation("Missing status in request body"))
		return
	}

	status := models.OrderStatus(*req.Status)
	order, err := h.orders.SetStatus(c.Request.Context(), id, status, middleware.Actor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.metrics.IncStatusTransition(string(order.Status))

	c.JSON(http.StatusOK, gin.H{
		"orderId":   order.ID,
		"status":    order.Status,
		"updatedAt": order.UpdatedAt,
	})
}

// AdminReportSummary totals revenue, order count and item count.
func (h *Handler) AdminReportSummary(c *gin.Context) {
	all, err := h.orders.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report.Summarize(all))
}

// AdminReportCSV downloads every order as CSV.
func (h *Handler) AdminReportCSV(c *gin.Context) {
	all, err := h.orders.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, all); err != nil {
		h.fail(c, apperrors.Internal(err, "Failed to build report"))
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+report.Filename(h.now())+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
