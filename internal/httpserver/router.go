package httpserver

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"fooddirect/internal/domain"
	"fooddirect/internal/imagehost"
	couponrepo "fooddirect/internal/repository/coupon"
	menurepo "fooddirect/internal/repository/menu"
	orderrepo "fooddirect/internal/repository/order"
	zonerepo "fooddirect/internal/repository/zone"
	menusvc "fooddirect/internal/service/menu"
	ordersvc "fooddirect/internal/service/order"
	"fooddirect/internal/watch"
)

type orderService interface {
	Create(ctx context.Context, in ordersvc.CreateInput) (*domain.Order, error)
	Get(ctx context.Context, id string) (*domain.Order, error)
	GetByCode(ctx context.Context, code string) (*domain.Order, error)
	Fetch(ctx context.Context, filter orderrepo.ListFilter) ([]domain.Order, error)
	Search(ctx context.Context, term string) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, in ordersvc.UpdateStatusInput) (*domain.Order, error)
	ConfirmWhatsApp(ctx context.Context, id, note string) (*domain.Order, error)
	Update(ctx context.Context, id string, in orderrepo.UpdateInput) (*domain.Order, error)
	Delete(ctx context.Context, id string) error
	MyOrders(ctx context.Context, phone string) ([]domain.Order, error)
	Analytics(ctx context.Context) (domain.Analytics, error)
	SubscribeOrders(ctx context.Context, filter orderrepo.ListFilter) (*watch.OrderSubscription, error)
	SubscribeAnalytics(ctx context.Context) (*watch.AnalyticsSubscription, error)
}

type menuService interface {
	Storefront(ctx context.Context) ([]menusvc.Section, error)
	CreateSection(ctx context.Context, in domain.MenuSection) (*domain.MenuSection, error)
	ListSections(ctx context.Context, activeOnly bool) ([]domain.MenuSection, error)
	UpdateSection(ctx context.Context, id string, in menurepo.SectionUpdate) (*domain.MenuSection, error)
	DeleteSection(ctx context.Context, id string) error
	CreateItem(ctx context.Context, in domain.MenuItem) (*domain.MenuItem, error)
	ListItems(ctx context.Context, sectionID string, availableOnly bool) ([]domain.MenuItem, error)
	UpdateItem(ctx context.Context, id string, in menurepo.ItemUpdate) (*domain.MenuItem, error)
	DeleteItem(ctx context.Context, id string) error
}

type couponService interface {
	Create(ctx context.Context, in domain.Coupon) (*domain.Coupon, error)
	List(ctx context.Context) ([]domain.Coupon, error)
	Update(ctx context.Context, id string, in couponrepo.UpdateInput) (*domain.Coupon, error)
	Delete(ctx context.Context, id string) error
	Preview(ctx context.Context, code string, subtotalCents int64) (*domain.Coupon, int64, error)
}

type zoneService interface {
	Create(ctx context.Context, in domain.DeliveryZone) (*domain.DeliveryZone, error)
	List(ctx context.Context, activeOnly bool) ([]domain.DeliveryZone, error)
	Update(ctx context.Context, id string, in zonerepo.UpdateInput) (*domain.DeliveryZone, error)
	Delete(ctx context.Context, id string) error
}

type customerService interface {
	Get(ctx context.Context, id string) (*domain.Customer, error)
	List(ctx context.Context, limit int) ([]domain.Customer, error)
	Search(ctx context.Context, term string) ([]domain.Customer, error)
	SetFlags(ctx context.Context, id string, vip, blocked *bool) (*domain.Customer, error)
	Delete(ctx context.Context, id string) error
	RebuildAll(ctx context.Context) (int, error)
}

type authService interface {
	Login(ctx context.Context, email, password string) (*domain.Admin, string, error)
	Logout(ctx context.Context, token string) error
	LookupByToken(ctx context.Context, token string) (*domain.Admin, error)
	Register(ctx context.Context, email, password, name string) (*domain.Admin, error)
	SessionTTLSeconds() int
}

type checkoutBuilder interface {
	Message(o domain.Order) string
	DeepLink(o domain.Order) string
	QRCode(o domain.Order, size int) ([]byte, error)
}

type imageStore interface {
	Upload(ctx context.Context, filename string, content io.Reader) (*imagehost.Image, error)
	Delete(ctx context.Context, id string) error
}

// Deps carries the services the router dispatches to. WhatsApp and Images
// are optional; their routes return 503 when unset.
type Deps struct {
	OrderSvc    orderService
	MenuSvc     menuService
	CouponSvc   couponService
	ZoneSvc     zoneService
	CustomerSvc customerService
	AuthSvc     authService
	WhatsApp    checkoutBuilder
	Images      imageStore
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if deps.OrderSvc == nil || deps.MenuSvc == nil || deps.CouponSvc == nil ||
		deps.ZoneSvc == nil || deps.CustomerSvc == nil || deps.AuthSvc == nil {
		return nil, errors.New("httpserver: missing required service dependency")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Authorization", "Content-Type"},
		MaxAge:          12 * time.Hour,
	}))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	h := &handlers{deps: deps, logger: logger}

	api := router.Group("/api")
	{
		api.GET("/menu", h.storefrontMenu)
		api.GET("/zones", h.storefrontZones)
		api.POST("/coupons/preview", h.couponPreview)

		api.POST("/orders", h.createOrder)
		api.GET("/orders/:id", h.getOrder)
		api.GET("/orders/track/:code", h.trackOrder)
		api.POST("/orders/:id/whatsapp/confirm", h.confirmWhatsApp)
		api.GET("/orders/:id/whatsapp", h.whatsappLink)
		api.GET("/orders/:id/whatsapp/qr", h.whatsappQR)
		api.GET("/my-orders", h.myOrders)
	}

	api.POST("/admin/login", h.login)

	admin := api.Group("/admin", h.authMiddleware())
	{
		admin.POST("/logout", h.logout)
		admin.GET("/me", h.me)
		admin.POST("/admins", h.registerAdmin)

		admin.GET("/orders", h.listOrders)
		admin.GET("/orders/stream", h.streamOrders)
		admin.GET("/orders/search", h.searchOrders)
		admin.GET("/orders/:id", h.adminGetOrder)
		admin.PATCH("/orders/:id", h.updateOrder)
		admin.PATCH("/orders/:id/status", h.updateOrderStatus)
		admin.POST("/orders/:id/confirm-whatsapp", h.adminConfirmWhatsApp)
		admin.DELETE("/orders/:id", h.deleteOrder)

		admin.GET("/analytics", h.analytics)
		admin.GET("/analytics/stream", h.streamAnalytics)

		admin.GET("/menu/sections", h.listSections)
		admin.POST("/menu/sections", h.createSection)
		admin.PATCH("/menu/sections/:id", h.updateSection)
		admin.DELETE("/menu/sections/:id", h.deleteSection)
		admin.GET("/menu/items", h.listItems)
		admin.POST("/menu/items", h.createItem)
		admin.PATCH("/menu/items/:id", h.updateItem)
		admin.DELETE("/menu/items/:id", h.deleteItem)

		admin.GET("/coupons", h.listCoupons)
		admin.POST("/coupons", h.createCoupon)
		admin.PATCH("/coupons/:id", h.updateCoupon)
		admin.DELETE("/coupons/:id", h.deleteCoupon)

		admin.GET("/zones", h.listZones)
		admin.POST("/zones", h.createZone)
		admin.PATCH("/zones/:id", h.updateZone)
		admin.DELETE("/zones/:id", h.deleteZone)

		admin.GET("/customers", h.listCustomers)
		admin.GET("/customers/search", h.searchCustomers)
		admin.GET("/customers/:id", h.getCustomer)
		admin.PATCH("/customers/:id/flags", h.setCustomerFlags)
		admin.DELETE("/customers/:id", h.deleteCustomer)
		admin.POST("/customers/rebuild", h.rebuildCustomers)

		admin.POST("/images", h.uploadImage)
		admin.DELETE("/images/:id", h.deleteImage)
	}

	return router, nil
}

type handlers struct {
	deps   Deps
	logger *log.Logger
}
