// Package api exposes the catalog, the cart and checkout as a JSON HTTP API.
package api

import (
	"context"
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/cardapio/internal/domain/cart"
	"github.com/xenking/cardapio/internal/domain/order"
	"github.com/xenking/cardapio/internal/domain/product"
	"github.com/xenking/cardapio/internal/money"
	"github.com/xenking/cardapio/pkg/httpmiddleware"
)

// maxBodySize bounds request bodies.
const maxBodySize = 64 << 10

// Error codes returned in {"code": ..., "message": ...} bodies.
const (
	CodeBadRequest      = "bad_request"
	CodeNotFound        = "not_found"
	CodeInvalidQuantity = "invalid_quantity"
	CodeValidation      = "validation"
	CodeMenuUnavailable = "menu_unavailable"
	CodeInternal        = "internal"
)

// Checkout places orders from the current cart.
type Checkout interface {
	Checkout(ctx context.Context, customer order.Customer) (*order.CheckoutResult, error)
	Payments() []string
}

// HandlerConfig holds non-dependency configuration for the Handler.
type HandlerConfig struct {
	// Formatter renders the *Formatted fields. Defaults to BRL.
	Formatter money.Formatter
	// Prefix is prepended to every API route. Defaults to "/api".
	Prefix string
}

// Handler serves the API, delegating to the catalog, the cart engine and
// the checkout service.
type Handler struct {
	catalog  product.Catalog
	cart     *cart.Cart
	checkout Checkout
	fmt      money.Formatter
	prefix   string
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(cfg HandlerConfig, catalog product.Catalog, c *cart.Cart, checkout Checkout) *Handler {
	if cfg.Formatter == (money.Formatter{}) {
		cfg.Formatter = money.BRL()
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "/api"
	}
	return &Handler{
		catalog:  catalog,
		cart:     c,
		checkout: checkout,
		fmt:      cfg.Formatter,
		prefix:   cfg.Prefix,
	}
}

// Register mounts the API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	p := h.prefix
	handle := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, httpmiddleware.Route(fn))
	}
	handle("GET "+p+"/product", h.ListProducts)
	handle("GET "+p+"/product/{productId}", h.GetProduct)
	handle("GET "+p+"/category", h.ListCategories)
	handle("GET "+p+"/payment", h.ListPayments)

	handle("GET "+p+"/cart", h.GetCart)
	handle("DELETE "+p+"/cart", h.ClearCart)
	handle("POST "+p+"/cart/items", h.AddItem)
	handle("PUT "+p+"/cart/items/{itemId}", h.UpdateItem)
	handle("DELETE "+p+"/cart/items/{itemId}", h.RemoveItem)

	handle("POST "+p+"/checkout", h.PlaceOrder)
}

// Handler returns a ServeMux with only the API routes.
func (h *Handler) Handler() http.Handler {
	mux := http.NewServeMux()
	h.Register(mux)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, body func(e *jx.Encoder)) {
	var e jx.Encoder
	body(&e)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Str(code) })
			e.Field("message", func(e *jx.Encoder) { e.Str(message) })
		})
	})
}

// internalError logs err and writes a generic 500.
func internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	zctx.From(r.Context()).Error(msg,
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, CodeInternal, "internal server error")
}

// readBody reads a bounded request body. An empty body yields "{}".
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}
	if len(data) == 0 {
		return []byte("{}"), nil
	}
	return data, nil
}

// decodeObject iterates the fields of a JSON object body.
func decodeObject(data []byte, f func(d *jx.Decoder, key string) error) error {
	if err := jx.DecodeBytes(data).Obj(f); err != nil {
		return errors.Wrap(err, "decode body")
	}
	return nil
}

// decodeString accepts strings and bare numbers.
func decodeString(d *jx.Decoder) (string, error) {
	if d.Next() == jx.Number {
		n, err := d.Num()
		return string(n), err
	}
	return d.Str()
}
