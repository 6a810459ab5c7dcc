package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pureline/storefront-api/internal/core/domain"
	"github.com/pureline/storefront-api/internal/core/ports"
)

type OrderHandler struct {
	checkout ports.CheckoutService
	orders   ports.OrderService
}

func NewOrderHandler(checkout ports.CheckoutService, orders ports.OrderService) *OrderHandler {
	return &OrderHandler{checkout: checkout, orders: orders}
}

type buyNowRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type buyNowResponse struct {
	Order *ports.GatewayOrder `json:"order"`
	KeyID string              `json:"key_id"`
}

type claimedItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
}

type verifyPaymentRequest struct {
	GatewayOrderID   string               `json:"gateway_order_id"`
	GatewayPaymentID string               `json:"gateway_payment_id"`
	GatewaySignature string               `json:"gateway_signature"`
	Items            []claimedItemRequest `json:"items" validate:"dive"`
	ShippingAddress  string               `json:"shippingAddress"`
}

type verifyPaymentResponse struct {
	Message string        `json:"message"`
	Data    *domain.Order `json:"data"`
}

func (r verifyPaymentRequest) toClaim() ports.PaymentClaim {
	items := make([]ports.ClaimedItem, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, ports.ClaimedItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return ports.PaymentClaim{
		GatewayOrderID:   r.GatewayOrderID,
		GatewayPaymentID: r.GatewayPaymentID,
		GatewaySignature: r.GatewaySignature,
		Items:            items,
		ShippingAddress:  r.ShippingAddress,
	}
}

// BuyNow opens a gateway payment order for a single product.
//
// @Summary      Buy now
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      buyNowRequest  true  "Product and quantity"
// @Success      201   {object}  buyNowResponse
// @Failure      400   {object}  messageResponse
// @Failure      404   {object}  messageResponse
// @Router       /api/orders/buy-now [post]
func (h *OrderHandler) BuyNow(c echo.Context) error {
	if _, err := ctxIdentity(c); err != nil {
		return err
	}

	var req buyNowRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.checkout.BuyNow(c.Request().Context(), ports.BuyNowInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, buyNowResponse{Order: res.Order, KeyID: res.KeyID})
}

// VerifyPayment checks the gateway signature and creates the paid order.
//
// @Summary      Verify payment and create order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      verifyPaymentRequest  true  "Gateway confirmation and items"
// @Success      201   {object}  verifyPaymentResponse
// @Failure      400   {object}  messageResponse
// @Failure      404   {object}  messageResponse
// @Failure      409   {object}  messageResponse
// @Router       /api/orders/verify-payment [post]
func (h *OrderHandler) VerifyPayment(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req verifyPaymentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	order, err := h.checkout.VerifyAndCreateOrder(c.Request().Context(), identity.ID, req.toClaim())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, verifyPaymentResponse{
		Message: "Payment verified and order created",
		Data:    order,
	})
}

// List returns the caller's orders; administrators see every order.
//
// @Summary      List orders
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dataResponse
// @Router       /api/orders [get]
func (h *OrderHandler) List(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	orders, err := h.orders.List(c.Request().Context(), identity)
	if err != nil {
		return err
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return c.JSON(http.StatusOK, dataResponse{Data: orders})
}

// ListAll returns every order with its customer summary. Admin only.
//
// @Summary      List all orders
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dataResponse
// @Failure      403  {object}  messageResponse
// @Router       /api/orders/admin/all [get]
func (h *OrderHandler) ListAll(c echo.Context) error {
	orders, err := h.orders.ListAll(c.Request().Context())
	if err != nil {
		return err
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return c.JSON(http.StatusOK, dataResponse{Data: orders})
}

// Invoice streams the PDF invoice of an order.
//
// @Summary      Download invoice
// @Tags         orders
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id   path      string  true  "Order ID"
// @Success      200  {file}    binary
// @Failure      404  {object}  messageResponse
// @Router       /api/orders/{id}/invoice [get]
func (h *OrderHandler) Invoice(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	id := c.Param("id")
	pdf, err := h.orders.Invoice(c.Request().Context(), identity, id)
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=invoice-%s.pdf", id))
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}
