package httpserver

import (
	"context"
	"io"
	"log"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"storefront-cart/internal/domain"
	cartsvc "storefront-cart/internal/service/cart"
)

// CartService is the cart store surface the handlers drive.
type CartService interface {
	Snapshot() domain.Cart
	AddItem(in cartsvc.AddItemInput) (domain.Cart, error)
	UpdateItem(productID string, quantity int) domain.Cart
	RemoveItem(productID string) domain.Cart
	Clear() domain.Cart
}

// Catalog resolves products and turns them into cart lines.
type Catalog interface {
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	PrepareLine(ctx context.Context, productID string, quantity int) (cartsvc.AddItemInput, error)
}

// DiscountRefresher reloads order discounts and reconciles the cart.
type DiscountRefresher interface {
	Refresh(ctx context.Context) error
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type Deps struct {
	Cart        CartService
	Catalog     Catalog
	Discounts   DiscountRefresher
	Ready       map[string]Pinger
	CORSOrigins []string
}

const requestIDHeader = "X-Request-ID"

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, deps Deps) *gin.Engine {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(requestID(), gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	if len(deps.CORSOrigins) > 0 {
		router.Use(cors.New(corsConfig(deps.CORSOrigins)))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.Ready))

	h := &cartHandler{cart: deps.Cart, catalog: deps.Catalog, discounts: deps.Discounts, logger: logger}
	if deps.Catalog != nil {
		router.GET("/products", h.listProducts)
		router.GET("/products/:productId", h.getProduct)
	}

	cart := router.Group("/cart")
	cart.GET("", h.getCart)
	cart.DELETE("", h.clearCart)
	cart.POST("/items", h.addItem)
	cart.PUT("/items/:productId", h.updateItem)
	cart.DELETE("/items/:productId", h.removeItem)
	cart.POST("/discounts/refresh", h.refreshDiscounts)

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
		ExposeHeaders: []string{requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

// requestID echoes the caller's X-Request-ID or assigns a fresh one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("requestID", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}
