package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fooddirect/internal/domain"
	ordersvc "fooddirect/internal/service/order"
)

func (h *handlers) storefrontMenu(c *gin.Context) {
	sections, err := h.deps.MenuSvc.Storefront(c.Request.Context())
	if err != nil {
		readErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sections": sections})
}

func (h *handlers) storefrontZones(c *gin.Context) {
	zones, err := h.deps.ZoneSvc.List(c.Request.Context(), true)
	if err != nil {
		readErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"zones": zones})
}

type couponPreviewRequest struct {
	Code          string `json:"code" binding:"required"`
	SubtotalCents int64  `json:"subtotalCents"`
}

func (h *handlers) couponPreview(c *gin.Context) {
	var req couponPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "coupon code required"})
		return
	}
	coupon, discount, err := h.deps.CouponSvc.Preview(c.Request.Context(), req.Code, req.SubtotalCents)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":          coupon.Code,
		"discountCents": discount,
	})
}

func (h *handlers) createOrder(c *gin.Context) {
	var in ordersvc.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order payload"})
		return
	}
	created, err := h.deps.OrderSvc.Create(c.Request.Context(), in)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *handlers) getOrder(c *gin.Context) {
	o, err := h.deps.OrderSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		readErr(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *handlers) trackOrder(c *gin.Context) {
	o, err := h.deps.OrderSvc.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		readErr(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// confirmWhatsApp is hit by the customer's device after the checkout message
// was handed to WhatsApp.
func (h *handlers) confirmWhatsApp(c *gin.Context) {
	o, err := h.deps.OrderSvc.ConfirmWhatsApp(c.Request.Context(), c.Param("id"), "")
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *handlers) whatsappLink(c *gin.Context) {
	if h.deps.WhatsApp == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "whatsapp checkout not configured"})
		return
	}
	o, err := h.deps.OrderSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		readErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": h.deps.WhatsApp.Message(*o),
		"link":    h.deps.WhatsApp.DeepLink(*o),
	})
}

func (h *handlers) whatsappQR(c *gin.Context) {
	if h.deps.WhatsApp == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "whatsapp checkout not configured"})
		return
	}
	o, err := h.deps.OrderSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		readErr(c, err)
		return
	}
	png, err := h.deps.WhatsApp.QRCode(*o, 256)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func (h *handlers) myOrders(c *gin.Context) {
	phone := c.Query("phone")
	if phone == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "phone required"})
		return
	}
	orders, err := h.deps.OrderSvc.MyOrders(c.Request.Context(), phone)
	if err != nil {
		writeErr(c, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}
