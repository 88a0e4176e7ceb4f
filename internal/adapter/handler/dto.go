package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
)

// Request and response shapes shared by the HTTP API and the gRPC JSON codec.
// Money always travels as a decimal string with two places.

type AddItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

type CheckoutRequest struct {
	AddressID      string           `json:"address_id"`
	PaymentMethod  string           `json:"payment_method"`
	ShippingCost   *decimal.Decimal `json:"shipping_cost"`
	TotalAmount    *decimal.Decimal `json:"total_amount"`
	IdempotencyKey string           `json:"idempotency_key,omitempty"`
}

func (r CheckoutRequest) toDomain() (domain.CheckoutRequest, error) {
	if r.ShippingCost == nil {
		return domain.CheckoutRequest{}, domain.Errorf(domain.ErrInvalidArgument, "shipping_cost is required")
	}
	if r.TotalAmount == nil {
		return domain.CheckoutRequest{}, domain.Errorf(domain.ErrInvalidArgument, "total_amount is required")
	}
	return domain.CheckoutRequest{
		AddressID:      r.AddressID,
		PaymentMethod:  r.PaymentMethod,
		ShippingCost:   *r.ShippingCost,
		TotalAmount:    *r.TotalAmount,
		IdempotencyKey: r.IdempotencyKey,
	}, nil
}

type UpdateStatusRequest struct {
	OrderID string `json:"order_id,omitempty"`
	Status  string `json:"status"`
}

type OrderDetailsRequest struct {
	OrderID string `json:"order_id"`
}

type ListOrdersRequest struct{}

type MeResponse struct {
	CustomerID string `json:"customer_id"`
	Role       string `json:"role"`
	Subject    string `json:"subject"`
	Email      string `json:"email,omitempty"`
	Name       string `json:"name,omitempty"`
}

func newMeResponse(caller domain.Caller, ext domain.ExternalIdentity) MeResponse {
	return MeResponse{
		CustomerID: caller.CustomerID,
		Role:       string(caller.Role),
		Subject:    ext.Subject,
		Email:      ext.Email,
		Name:       ext.Name,
	}
}

type CartItemResponse struct {
	ID           string    `json:"id"`
	ProductID    string    `json:"product_id"`
	ProductName  string    `json:"product_name"`
	ImageURL     string    `json:"image_url"`
	Quantity     int       `json:"quantity"`
	UnitPrice    string    `json:"unit_price"`
	CurrentPrice string    `json:"current_price"`
	LineTotal    string    `json:"line_total"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type CartResponse struct {
	CartID   string             `json:"cart_id"`
	Items    []CartItemResponse `json:"items"`
	Subtotal string             `json:"subtotal"`
}

func newCartResponse(v domain.CartView) CartResponse {
	resp := CartResponse{
		CartID:   v.CartID,
		Items:    make([]CartItemResponse, 0, len(v.Items)),
		Subtotal: v.Subtotal.StringFixed(2),
	}
	for _, it := range v.Items {
		resp.Items = append(resp.Items, CartItemResponse{
			ID:           it.ID,
			ProductID:    it.ProductID,
			ProductName:  it.ProductName,
			ImageURL:     it.ImageURL,
			Quantity:     it.Quantity,
			UnitPrice:    it.UnitPrice.StringFixed(2),
			CurrentPrice: it.CurrentPrice.StringFixed(2),
			LineTotal:    it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))).StringFixed(2),
			UpdatedAt:    it.UpdatedAt,
		})
	}
	return resp
}

type OrderItemResponse struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
}

type OrderResponse struct {
	ID            string              `json:"id"`
	CustomerID    string              `json:"customer_id"`
	Status        string              `json:"status"`
	TotalAmount   string              `json:"total_amount"`
	ShippingCost  string              `json:"shipping_cost"`
	PaymentMethod string              `json:"payment_method"`
	AddressID     string              `json:"address_id"`
	Items         []OrderItemResponse `json:"items"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

func newOrderResponse(o domain.Order) OrderResponse {
	resp := OrderResponse{
		ID:            o.ID,
		CustomerID:    o.CustomerID,
		Status:        string(o.Status),
		TotalAmount:   o.TotalAmount.StringFixed(2),
		ShippingCost:  o.ShippingCost.StringFixed(2),
		PaymentMethod: o.PaymentMethod,
		AddressID:     o.AddressID,
		Items:         make([]OrderItemResponse, 0, len(o.Items)),
		CreatedAt:     o.CreatedAt.UTC(),
		UpdatedAt:     o.UpdatedAt.UTC(),
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, OrderItemResponse{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			ImageURL:    it.ImageURL,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice.StringFixed(2),
		})
	}
	return resp
}

type OrderSummaryResponse struct {
	ID            string    `json:"id"`
	CustomerID    string    `json:"customer_id"`
	CustomerEmail string    `json:"customer_email,omitempty"`
	Status        string    `json:"status"`
	TotalAmount   string    `json:"total_amount"`
	CreatedAt     time.Time `json:"created_at"`
}

type OrderListResponse struct {
	Orders []OrderSummaryResponse `json:"orders"`
}

func newOrderListResponse(orders []domain.OrderSummary) OrderListResponse {
	resp := OrderListResponse{Orders: make([]OrderSummaryResponse, 0, len(orders))}
	for _, o := range orders {
		resp.Orders = append(resp.Orders, OrderSummaryResponse{
			ID:            o.ID,
			CustomerID:    o.CustomerID,
			CustomerEmail: o.CustomerEmail,
			Status:        string(o.Status),
			TotalAmount:   o.TotalAmount.StringFixed(2),
			CreatedAt:     o.CreatedAt.UTC(),
		})
	}
	return resp
}
