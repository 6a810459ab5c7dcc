package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pureline/storefront-api/internal/core/domain"
	"github.com/pureline/storefront-api/internal/core/ports"
)

type CartHandler struct {
	carts ports.CartService
}

func NewCartHandler(carts ports.CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

type addToCartRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type updateCartItemRequest struct {
	Quantity *int `json:"quantity"`
}

// Get returns the caller's cart with product details.
//
// @Summary      Get cart
// @Tags         cart
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dataResponse
// @Failure      404  {object}  messageResponse
// @Router       /api/cart [get]
func (h *CartHandler) Get(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	cart, err := h.carts.Get(c.Request().Context(), identity.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dataResponse{Data: cart})
}

// Add puts a product in the cart, incrementing an existing line.
//
// @Summary      Add to cart
// @Tags         cart
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      addToCartRequest  true  "Line"
// @Success      200   {object}  dataResponse  "existing line incremented"
// @Success      201   {object}  dataResponse  "new line created"
// @Failure      400   {object}  messageResponse
// @Failure      404   {object}  messageResponse
// @Router       /api/cart [post]
func (h *CartHandler) Add(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req addToCartRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.carts.Add(c.Request().Context(), identity.ID, req.ProductID, req.Quantity)
	if err != nil {
		return err
	}

	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	return c.JSON(status, dataResponse{Data: res.Item})
}

// UpdateItem sets the quantity of one of the caller's lines; 0 removes it.
//
// @Summary      Update cart item
// @Tags         cart
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        itemId  path      string                 true  "Cart item ID"
// @Param        body    body      updateCartItemRequest  true  "Quantity"
// @Success      200     {object}  messageResponse
// @Failure      400     {object}  messageResponse
// @Failure      404     {object}  messageResponse
// @Router       /api/cart/items/{itemId} [put]
func (h *CartHandler) UpdateItem(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req updateCartItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if req.Quantity == nil {
		return domain.Invalid("Invalid quantity provided")
	}

	removed, err := h.carts.UpdateItem(c.Request().Context(), identity.ID, c.Param("itemId"), *req.Quantity)
	if err != nil {
		return err
	}
	if removed {
		return c.JSON(http.StatusOK, messageResponse{Message: "Item removed from cart"})
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Cart item updated successfully"})
}

// RemoveItem deletes one of the caller's lines.
//
// @Summary      Remove cart item
// @Tags         cart
// @Produce      json
// @Security     BearerAuth
// @Param        itemId  path      string  true  "Cart item ID"
// @Success      200     {object}  messageResponse
// @Failure      404     {object}  messageResponse
// @Router       /api/cart/items/{itemId} [delete]
func (h *CartHandler) RemoveItem(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	if err := h.carts.RemoveItem(c.Request().Context(), identity.ID, c.Param("itemId")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Item removed from cart"})
}
