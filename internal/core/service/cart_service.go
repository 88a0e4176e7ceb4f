package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

// CartService owns the customer -> active cart -> items mapping. The
// cart-scoped methods trust their cartID; the caller-scoped ones resolve the
// caller's own cart first, which is how ownership is enforced.
type CartService struct {
	carts   port.CartRepository
	catalog port.Catalog
	logger  *zap.Logger
}

func NewCartService(carts port.CartRepository, catalog port.Catalog, logger *zap.Logger) *CartService {
	return &CartService{carts: carts, catalog: catalog, logger: logger}
}

func (s *CartService) ActiveCart(ctx context.Context, customerID string) (string, error) {
	cartID, err := s.carts.GetOrCreateActiveCart(ctx, customerID)
	if err != nil {
		return "", domain.Storage("get active cart", err)
	}
	return cartID, nil
}

// AddItem adds quantity to the product's line and refreshes the captured
// price to the current catalog price. The merged quantity must stay within
// domain.MaxQuantity.
func (s *CartService) AddItem(ctx context.Context, cartID, productID string, quantity int) (domain.CartItem, error) {
	if err := domain.ValidateQuantity(quantity, 1); err != nil {
		return domain.CartItem{}, err
	}
	if productID == "" {
		return domain.CartItem{}, domain.Errorf(domain.ErrInvalidArgument, "product_id is required")
	}

	ps, err := s.catalog.GetPriceAndStock(ctx, productID)
	if err != nil {
		return domain.CartItem{}, domain.Storage("catalog lookup", err)
	}

	items, err := s.carts.Items(ctx, cartID)
	if err != nil {
		return domain.CartItem{}, domain.Storage("list cart items", err)
	}
	for _, it := range items {
		if it.ProductID == productID && it.Quantity > domain.MaxQuantity-quantity {
			return domain.CartItem{}, domain.Errorf(domain.ErrInvalidArgument,
				"cart already holds %d of %s, adding %d would exceed %d", it.Quantity, productID, quantity, domain.MaxQuantity)
		}
	}

	item, err := s.carts.UpsertItem(ctx, cartID, productID, quantity, ps.Price)
	if err != nil {
		return domain.CartItem{}, domain.Storage("upsert cart item", err)
	}
	return item, nil
}

// SetQuantity overwrites an item's quantity; zero removes the item.
func (s *CartService) SetQuantity(ctx context.Context, cartID, itemID string, quantity int) error {
	if err := domain.ValidateQuantity(quantity, 0); err != nil {
		return err
	}
	if quantity == 0 {
		return s.RemoveItem(ctx, cartID, itemID)
	}
	if _, err := s.carts.SetItemQuantity(ctx, cartID, itemID, quantity); err != nil {
		return domain.Storage("set cart item quantity", err)
	}
	return nil
}

func (s *CartService) RemoveItem(ctx context.Context, cartID, itemID string) error {
	if err := s.carts.RemoveItem(ctx, cartID, itemID); err != nil {
		return domain.Storage("remove cart item", err)
	}
	return nil
}

func (s *CartService) Clear(ctx context.Context, cartID string) error {
	if err := s.carts.Clear(ctx, cartID); err != nil {
		return domain.Storage("clear cart", err)
	}
	return nil
}

// View joins the items with live catalog data. The subtotal uses captured
// prices only; CurrentPrice is informational.
func (s *CartService) View(ctx context.Context, cartID string) (domain.CartView, error) {
	items, err := s.carts.Items(ctx, cartID)
	if err != nil {
		return domain.CartView{}, domain.Storage("list cart items", err)
	}

	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	products, err := s.catalog.Products(ctx, ids)
	if err != nil {
		return domain.CartView{}, domain.Storage("catalog lookup", err)
	}

	view := domain.CartView{
		CartID:   cartID,
		Items:    make([]domain.CartLine, 0, len(items)),
		Subtotal: domain.Subtotal(items),
	}
	for _, it := range items {
		line := domain.CartLine{CartItem: it, CurrentPrice: it.UnitPrice}
		if p, ok := products[it.ProductID]; ok {
			line.ProductName = p.Name
			line.ImageURL = p.ImageURL
			line.CurrentPrice = p.Price
		} else {
			s.logger.Warn("cart item references unknown product",
				zap.String("cart_id", cartID),
				zap.String("product_id", it.ProductID),
			)
		}
		view.Items = append(view.Items, line)
	}
	return view, nil
}

func (s *CartService) GetCart(ctx context.Context, caller domain.Caller) (view domain.CartView, err error) {
	ctx, span := tracer.Start(ctx, "cart.get")
	defer func() { endSpan(span, err) }()

	cartID, err := s.callerCart(ctx, caller)
	if err != nil {
		return domain.CartView{}, err
	}
	return s.View(ctx, cartID)
}

func (s *CartService) AddToCart(ctx context.Context, caller domain.Caller, productID string, quantity int) (view domain.CartView, err error) {
	ctx, span := tracer.Start(ctx, "cart.add_item")
	span.SetAttributes(attribute.String("product_id", productID), attribute.Int("quantity", quantity))
	defer func() { endSpan(span, err) }()

	cartID, err := s.callerCart(ctx, caller)
	if err != nil {
		return domain.CartView{}, err
	}
	item, err := s.AddItem(ctx, cartID, productID, quantity)
	if err != nil {
		return domain.CartView{}, err
	}
	s.logger.Debug("cart item added",
		zap.String("customer_id", caller.CustomerID),
		zap.String("item_id", item.ID),
		zap.String("product_id", productID),
		zap.Int("quantity", item.Quantity),
	)
	return s.View(ctx, cartID)
}

func (s *CartService) SetCartItemQuantity(ctx context.Context, caller domain.Caller, itemID string, quantity int) (view domain.CartView, err error) {
	ctx, span := tracer.Start(ctx, "cart.set_quantity")
	span.SetAttributes(attribute.String("item_id", itemID), attribute.Int("quantity", quantity))
	defer func() { endSpan(span, err) }()

	cartID, err := s.callerCart(ctx, caller)
	if err != nil {
		return domain.CartView{}, err
	}
	if err := s.SetQuantity(ctx, cartID, itemID, quantity); err != nil {
		return domain.CartView{}, err
	}
	return s.View(ctx, cartID)
}

func (s *CartService) RemoveCartItem(ctx context.Context, caller domain.Caller, itemID string) (view domain.CartView, err error) {
	ctx, span := tracer.Start(ctx, "cart.remove_item")
	span.SetAttributes(attribute.String("item_id", itemID))
	defer func() { endSpan(span, err) }()

	cartID, err := s.callerCart(ctx, caller)
	if err != nil {
		return domain.CartView{}, err
	}
	if err := s.RemoveItem(ctx, cartID, itemID); err != nil {
		return domain.CartView{}, err
	}
	return s.View(ctx, cartID)
}

func (s *CartService) ClearCart(ctx context.Context, caller domain.Caller) (view domain.CartView, err error) {
	ctx, span := tracer.Start(ctx, "cart.clear")
	defer func() { endSpan(span, err) }()

	cartID, err := s.callerCart(ctx, caller)
	if err != nil {
		return domain.CartView{}, err
	}
	if err := s.Clear(ctx, cartID); err != nil {
		return domain.CartView{}, err
	}
	return s.View(ctx, cartID)
}

func (s *CartService) callerCart(ctx context.Context, caller domain.Caller) (string, error) {
	if err := caller.Validate(); err != nil {
		return "", err
	}
	return s.ActiveCart(ctx, caller.CustomerID)
}
