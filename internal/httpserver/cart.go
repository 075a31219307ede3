package httpserver

import (
	"net/http"

	"storefront/internal/domain"
	cartsvc "storefront/internal/service/cart"

	"github.com/gin-gonic/gin"
)

var cartLineNotFound = errText{notFound: "Item not found in cart"}

type quantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func (a *api) getCart(c *gin.Context) {
	cart, err := a.deps.CartSvc.Get(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		a.fail(c, err, errText{})
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (a *api) addToCart(c *gin.Context) {
	var in cartsvc.AddInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	id, ok := canonicalID(in.ProductID)
	if !ok {
		a.fail(c, domain.ErrNotFound, productNotFound)
		return
	}
	in.ProductID = id
	cart, err := a.deps.CartSvc.Add(c.Request.Context(), currentUser(c).ID, in)
	if err != nil {
		a.fail(c, err, productNotFound)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (a *api) updateCartLine(c *gin.Context) {
	productID := c.Param("productId")
	var in quantityRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	productID, ok := canonicalID(productID)
	if !ok {
		a.fail(c, domain.ErrNotFound, cartLineNotFound)
		return
	}
	cart, err := a.deps.CartSvc.UpdateQuantity(c.Request.Context(), currentUser(c).ID, productID, *in.Quantity)
	if err != nil {
		a.fail(c, err, cartLineNotFound)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (a *api) removeCartLine(c *gin.Context) {
	productID, ok := canonicalID(c.Param("productId"))
	if !ok {
		a.fail(c, domain.ErrNotFound, cartLineNotFound)
		return
	}
	cart, err := a.deps.CartSvc.Remove(c.Request.Context(), currentUser(c).ID, productID)
	if err != nil {
		a.fail(c, err, cartLineNotFound)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (a *api) clearCart(c *gin.Context) {
	cart, err := a.deps.CartSvc.Clear(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		a.fail(c, err, errText{})
		return
	}
	c.JSON(http.StatusOK, cart)
}
