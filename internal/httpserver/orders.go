package httpserver

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"storefront/internal/domain"
	ordersvc "storefront/internal/service/order"

	"github.com/gin-gonic/gin"
)

const idempotencyHeader = "Idempotency-Key"

func (a *api) checkout(c *gin.Context) {
	var in ordersvc.CheckoutInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	key := strings.TrimSpace(c.GetHeader(idempotencyHeader))
	order, err := a.deps.OrderSvc.Checkout(c.Request.Context(), currentUser(c).ID, in, key)
	if err != nil {
		a.fail(c, err, errText{})
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (a *api) listMyOrders(c *gin.Context) {
	orders, err := a.deps.OrderSvc.ListMine(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		a.fail(c, err, errText{})
		return
	}
	c.JSON(http.StatusOK, nonNilOrders(orders))
}

func (a *api) listAllOrders(c *gin.Context) {
	orders, err := a.deps.OrderSvc.ListAll(c.Request.Context())
	if err != nil {
		a.fail(c, err, errText{})
		return
	}
	c.JSON(http.StatusOK, nonNilOrders(orders))
}

func (a *api) getOrder(c *gin.Context) {
	a.withOrder(c, errText{notFound: "Order not found", forbidden: "Not authorized to view this order"},
		func(id string) (*domain.Order, error) {
			return a.deps.OrderSvc.Get(c.Request.Context(), currentUser(c), id)
		})
}

func (a *api) payOrder(c *gin.Context) {
	var in ordersvc.PaymentInput
	if err := c.ShouldBindJSON(&in); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}
	a.withOrder(c, errText{notFound: "Order not found", forbidden: "Not authorized to update this order"},
		func(id string) (*domain.Order, error) {
			return a.deps.OrderSvc.MarkPaid(c.Request.Context(), currentUser(c), id, in)
		})
}

func (a *api) deliverOrder(c *gin.Context) {
	a.withOrder(c, errText{notFound: "Order not found", forbidden: "Not authorized as admin"},
		func(id string) (*domain.Order, error) {
			return a.deps.OrderSvc.MarkDelivered(c.Request.Context(), currentUser(c), id)
		})
}

// withOrder treats a malformed id as unknown and renders the result of fn.
func (a *api) withOrder(c *gin.Context, text errText, fn func(id string) (*domain.Order, error)) {
	id, ok := canonicalID(c.Param("id"))
	if !ok {
		a.fail(c, domain.ErrNotFound, text)
		return
	}
	order, err := fn(id)
	if err != nil {
		a.fail(c, err, text)
		return
	}
	c.JSON(http.StatusOK, order)
}

func nonNilOrders(orders []domain.Order) []domain.Order {
	if orders == nil {
		return []domain.Order{}
	}
	return orders
}
