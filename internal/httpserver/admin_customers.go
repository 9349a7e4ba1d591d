package httpserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"fooddirect/internal/domain"
)

func (h *handlers) listCustomers(c *gin.Context) {
	limit := 100
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	customers, err := h.deps.CustomerSvc.List(c.Request.Context(), limit)
	if err != nil {
		readErr(c, err)
		return
	}
	if customers == nil {
		customers = []domain.Customer{}
	}
	c.JSON(http.StatusOK, gin.H{"customers": customers})
}

func (h *handlers) searchCustomers(c *gin.Context) {
	customers, err := h.deps.CustomerSvc.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		readErr(c, err)
		return
	}
	if customers == nil {
		customers = []domain.Customer{}
	}
	c.JSON(http.StatusOK, gin.H{"customers": customers})
}

func (h *handlers) getCustomer(c *gin.Context) {
	customer, err := h.deps.CustomerSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		readErr(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

type customerFlagsRequest struct {
	IsVIP     *bool `json:"isVip"`
	IsBlocked *bool `json:"isBlocked"`
}

func (h *handlers) setCustomerFlags(c *gin.Context) {
	var req customerFlagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid flags payload"})
		return
	}
	customer, err := h.deps.CustomerSvc.SetFlags(c.Request.Context(), c.Param("id"), req.IsVIP, req.IsBlocked)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *handlers) deleteCustomer(c *gin.Context) {
	if err := h.deps.CustomerSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// rebuildCustomers drops the aggregate table and replays every delivered
// order. Destructive, admin-only.
func (h *handlers) rebuildCustomers(c *gin.Context) {
	created, err := h.deps.CustomerSvc.RebuildAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"customers": created})
}

func (h *handlers) uploadImage(c *gin.Context) {
	if h.deps.Images == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image hosting not configured"})
		return
	}
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file required"})
		return
	}
	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable image file"})
		return
	}
	defer src.Close()

	img, err := h.deps.Images.Upload(c.Request.Context(), file.Filename, src)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "image upload failed"})
		return
	}
	c.JSON(http.StatusCreated, img)
}

func (h *handlers) deleteImage(c *gin.Context) {
	if h.deps.Images == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image hosting not configured"})
		return
	}
	if err := h.deps.Images.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "image delete failed"})
		return
	}
	c.Status(http.StatusNoContent)
}
