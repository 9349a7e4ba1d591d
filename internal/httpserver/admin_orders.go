package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"fooddirect/internal/domain"
	orderrepo "fooddirect/internal/repository/order"
	ordersvc "fooddirect/internal/service/order"
)

// filterFromQuery translates the admin dashboard query string into a list
// filter. Unknown values are ignored rather than rejected.
func filterFromQuery(c *gin.Context) orderrepo.ListFilter {
	var f orderrepo.ListFilter
	if v := c.Query("status"); v != "" {
		status := domain.OrderStatus(v)
		if status.Valid() {
			f.Status = &status
		}
	}
	if v := c.Query("type"); v != "" {
		typ := domain.FulfillmentType(v)
		if typ.Valid() {
			f.Type = &typ
		}
	}
	if v := c.Query("vip"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			f.VIP = &b
		}
	}
	if v := c.Query("blocked"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			f.Blocked = &b
		}
	}
	if v := c.Query("dateFrom"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.DateFrom = &t
		}
	}
	if v := c.Query("dateTo"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.DateTo = &t
		}
	}
	f.Search = c.Query("search")
	return f
}

func (h *handlers) listOrders(c *gin.Context) {
	orders, err := h.deps.OrderSvc.Fetch(c.Request.Context(), filterFromQuery(c))
	if err != nil {
		readErr(c, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *handlers) searchOrders(c *gin.Context) {
	orders, err := h.deps.OrderSvc.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		readErr(c, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *handlers) adminGetOrder(c *gin.Context) {
	o, err := h.deps.OrderSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		readErr(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *handlers) updateOrderStatus(c *gin.Context) {
	var in ordersvc.UpdateStatusInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status payload"})
		return
	}
	o, err := h.deps.OrderSvc.UpdateStatus(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

type confirmWhatsAppRequest struct {
	Note string `json:"note"`
}

func (h *handlers) adminConfirmWhatsApp(c *gin.Context) {
	var req confirmWhatsAppRequest
	_ = c.ShouldBindJSON(&req)
	o, err := h.deps.OrderSvc.ConfirmWhatsApp(c.Request.Context(), c.Param("id"), req.Note)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

type updateOrderRequest struct {
	CustomerInfo *domain.CustomerInfo `json:"customerInfo"`
	Items        []domain.OrderItem   `json:"items"`
	Notes        *string              `json:"notes"`
	IsVIP        *bool                `json:"isVip"`
	IsBlocked    *bool                `json:"isBlocked"`
}

func (h *handlers) updateOrder(c *gin.Context) {
	var req updateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order payload"})
		return
	}
	o, err := h.deps.OrderSvc.Update(c.Request.Context(), c.Param("id"), orderrepo.UpdateInput{
		CustomerInfo: req.CustomerInfo,
		Items:        req.Items,
		Notes:        req.Notes,
		IsVIP:        req.IsVIP,
		IsBlocked:    req.IsBlocked,
	})
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *handlers) deleteOrder(c *gin.Context) {
	if err := h.deps.OrderSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) analytics(c *gin.Context) {
	snap, err := h.deps.OrderSvc.Analytics(c.Request.Context())
	if err != nil {
		readErr(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// streamOrders pushes the full filtered order set over SSE whenever orders
// change. The connection lives until the client goes away.
func (h *handlers) streamOrders(c *gin.Context) {
	sub, err := h.deps.OrderSvc.SubscribeOrders(c.Request.Context(), filterFromQuery(c))
	if err != nil {
		readErr(c, err)
		return
	}
	defer sub.Unsubscribe()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case orders, ok := <-sub.C():
			if !ok {
				return
			}
			c.SSEvent("orders", gin.H{"orders": orders})
			c.Writer.Flush()
		}
	}
}

func (h *handlers) streamAnalytics(c *gin.Context) {
	sub, err := h.deps.OrderSvc.SubscribeAnalytics(c.Request.Context())
	if err != nil {
		readErr(c, err)
		return
	}
	defer sub.Unsubscribe()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-sub.C():
			if !ok {
				return
			}
			c.SSEvent("analytics", snap)
			c.Writer.Flush()
		}
	}
}
