package httpserver

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-cart/internal/domain"
)

type addItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  *int   `json:"quantity"`
}

type updateItemRequest struct {
	Quantity *int `json:"quantity" binding:"required,lte=9999"`
}

type cartResponse struct {
	domain.Cart
	TotalQuantity int   `json:"totalQuantity"`
	Total         int64 `json:"total"`
}

func toCartResponse(c domain.Cart) cartResponse {
	if c.Items == nil {
		c.Items = []domain.CartLineItem{}
	}
	return cartResponse{Cart: c, TotalQuantity: c.TotalQuantity(), Total: c.Total()}
}

type cartHandler struct {
	cart      CartService
	catalog   Catalog
	discounts DiscountRefresher
	logger    *log.Logger
}

func (h *cartHandler) getCart(c *gin.Context) {
	c.JSON(http.StatusOK, toCartResponse(h.cart.Snapshot()))
}

// Listeners such as the discount reconciler may adjust the cart after a mutation,
// so handlers respond with a fresh snapshot rather than the mutation's return value.
func (h *cartHandler) clearCart(c *gin.Context) {
	h.cart.Clear()
	c.JSON(http.StatusOK, toCartResponse(h.cart.Snapshot()))
}

func (h *cartHandler) addItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", "productId is required")
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	if qty < 1 {
		h.fail(c, domain.ErrInvalidQuantity)
		return
	}
	if h.catalog == nil {
		writeError(c, http.StatusServiceUnavailable, "catalog_unavailable", "product catalog not configured")
		return
	}
	in, err := h.catalog.PrepareLine(c.Request.Context(), req.ProductID, qty)
	if err != nil {
		h.fail(c, err)
		return
	}
	if _, err := h.cart.AddItem(in); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(h.cart.Snapshot()))
}

func (h *cartHandler) updateItem(c *gin.Context) {
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", "quantity is required")
		return
	}
	h.cart.UpdateItem(c.Param("productId"), *req.Quantity)
	c.JSON(http.StatusOK, toCartResponse(h.cart.Snapshot()))
}

func (h *cartHandler) removeItem(c *gin.Context) {
	h.cart.RemoveItem(c.Param("productId"))
	c.JSON(http.StatusOK, toCartResponse(h.cart.Snapshot()))
}

func (h *cartHandler) refreshDiscounts(c *gin.Context) {
	if h.discounts == nil {
		writeError(c, http.StatusServiceUnavailable, "discounts_unavailable", "discount source not configured")
		return
	}
	if err := h.discounts.Refresh(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(h.cart.Snapshot()))
}

func (h *cartHandler) listProducts(c *gin.Context) {
	products, err := h.catalog.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(products), "results": products})
}

func (h *cartHandler) getProduct(c *gin.Context) {
	p, err := h.catalog.Get(c.Request.Context(), c.Param("productId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *cartHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidQuantity):
		writeError(c, http.StatusBadRequest, "invalid_quantity", err.Error())
	case errors.Is(err, domain.ErrInvalidItem):
		writeError(c, http.StatusBadRequest, "invalid_item", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(c, http.StatusNotFound, "not_found", err.Error())
	default:
		h.logger.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		writeError(c, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"statusCode": status, "code": code, "message": message})
}
