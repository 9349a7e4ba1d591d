package httpserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fooddirect/internal/domain"
	couponrepo "fooddirect/internal/repository/coupon"
	menurepo "fooddirect/internal/repository/menu"
	zonerepo "fooddirect/internal/repository/zone"
)

func (h *handlers) listSections(c *gin.Context) {
	sections, err := h.deps.MenuSvc.ListSections(c.Request.Context(), false)
	if err != nil {
		readErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sections": sections})
}

type sectionRequest struct {
	Name      string `json:"name"`
	SortOrder int    `json:"sortOrder"`
	Active    *bool  `json:"active"`
}

func (h *handlers) createSection(c *gin.Context) {
	var req sectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid section payload"})
		return
	}
	section := domain.MenuSection{Name: req.Name, SortOrder: req.SortOrder, Active: true}
	if req.Active != nil {
		section.Active = *req.Active
	}
	created, err := h.deps.MenuSvc.CreateSection(c.Request.Context(), section)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *handlers) updateSection(c *gin.Context) {
	var in menurepo.SectionUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid section payload"})
		return
	}
	updated, err := h.deps.MenuSvc.UpdateSection(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *handlers) deleteSection(c *gin.Context) {
	if err := h.deps.MenuSvc.DeleteSection(c.Request.Context(), c.Param("id")); err != nil {
		writeErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) listItems(c *gin.Context) {
	items, err := h.deps.MenuSvc.ListItems(c.Request.Context(), c.Query("sectionId"), false)
	if err != nil {
		readErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *handlers) createItem(c *gin.Context) {
	var item domain.MenuItem
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item payload"})
		return
	}
	created, err := h.deps.MenuSvc.CreateItem(c.Request.Context(), item)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *handlers) updateItem(c *gin.Context) {
	var in menurepo.ItemUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item payload"})
		return
	}
	updated, err := h.deps.MenuSvc.UpdateItem(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *handlers) deleteItem(c *gin.Context) {
	if err := h.deps.MenuSvc.DeleteItem(c.Request.Context(), c.Param("id")); err != nil {
		writeErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) listCoupons(c *gin.Context) {
	coupons, err := h.deps.CouponSvc.List(c.Request.Context())
	if err != nil {
		readErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"coupons": coupons})
}

type couponRequest struct {
	Code          string            `json:"code"`
	Kind          domain.CouponKind `json:"kind"`
	Percent       int               `json:"percent"`
	AmountCents   int64             `json:"amountCents"`
	MinOrderCents int64             `json:"minOrderCents"`
	UsageLimit    int               `json:"usageLimit"`
	Active        *bool             `json:"active"`
	ValidFrom     *time.Time        `json:"validFrom"`
	ValidUntil    *time.Time        `json:"validUntil"`
}

func (h *handlers) createCoupon(c *gin.Context) {
	var req couponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid coupon payload"})
		return
	}
	coupon := domain.Coupon{
		Code:          req.Code,
		Kind:          req.Kind,
		Percent:       req.Percent,
		AmountCents:   req.AmountCents,
		MinOrderCents: req.MinOrderCents,
		UsageLimit:    req.UsageLimit,
		Active:        true,
		ValidFrom:     req.ValidFrom,
		ValidUntil:    req.ValidUntil,
	}
	if req.Active != nil {
		coupon.Active = *req.Active
	}
	created, err := h.deps.CouponSvc.Create(c.Request.Context(), coupon)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *handlers) updateCoupon(c *gin.Context) {
	var in couponrepo.UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid coupon payload"})
		return
	}
	updated, err := h.deps.CouponSvc.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *handlers) deleteCoupon(c *gin.Context) {
	if err := h.deps.CouponSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) listZones(c *gin.Context) {
	zones, err := h.deps.ZoneSvc.List(c.Request.Context(), false)
	if err != nil {
		readErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"zones": zones})
}

type zoneRequest struct {
	Name          string `json:"name"`
	FeeCents      int64  `json:"feeCents"`
	MinOrderCents int64  `json:"minOrderCents"`
	Active        *bool  `json:"active"`
}

func (h *handlers) createZone(c *gin.Context) {
	var req zoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid zone payload"})
		return
	}
	zone := domain.DeliveryZone{
		Name:          req.Name,
		FeeCents:      req.FeeCents,
		MinOrderCents: req.MinOrderCents,
		Active:        true,
	}
	if req.Active != nil {
		zone.Active = *req.Active
	}
	created, err := h.deps.ZoneSvc.Create(c.Request.Context(), zone)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *handlers) updateZone(c *gin.Context) {
	var in zonerepo.UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid zone payload"})
		return
	}
	updated, err := h.deps.ZoneSvc.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *handlers) deleteZone(c *gin.Context) {
	if err := h.deps.ZoneSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
