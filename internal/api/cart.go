package api

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/cardapio/internal/domain/cart"
)

type addItemReq struct {
	ProductID string
	Variant   string
	Quantity  int
}

func decodeAddItem(data []byte) (addItemReq, error) {
	req := addItemReq{Quantity: 1}
	err := decodeObject(data, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "productId":
			req.ProductID, err = decodeString(d)
		case "variant", "size":
			req.Variant, err = d.Str()
		case "quantity":
			req.Quantity, err = d.Int()
		default:
			err = d.Skip()
		}
		return err
	})
	return req, err
}

func decodeQuantity(data []byte) (quantity int, ok bool, err error) {
	err = decodeObject(data, func(d *jx.Decoder, key string) error {
		if key != "quantity" {
			return d.Skip()
		}
		v, err := d.Int()
		if err != nil {
			return err
		}
		quantity, ok = v, true
		return nil
	})
	return quantity, ok, err
}

// GetCart returns the cart contents with derived totals.
func (h *Handler) GetCart(w http.ResponseWriter, _ *http.Request) {
	h.writeCart(w, http.StatusOK)
}

// AddItem adds a product variant to the cart, merging into an existing
// line for the same variant.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	req, err := decodeAddItem(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	if req.ProductID == "" {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "productId required")
		return
	}

	ctx := r.Context()
	p, err := h.catalog.GetByID(ctx, req.ProductID)
	if err != nil {
		h.catalogError(w, r, err)
		return
	}
	label := req.Variant
	if label == "" && len(p.Variants) == 1 {
		label = p.Variants[0].Label
	}
	v, err := p.Variant(label)
	if err != nil {
		writeError(w, http.StatusNotFound, CodeNotFound, "variant "+label+" not found")
		return
	}

	item, err := h.cart.AddItem(ctx, *p, v, req.Quantity)
	switch {
	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrQuantityLimit),
		errors.Is(err, cart.ErrInvalidPrice):
		writeError(w, http.StatusUnprocessableEntity, CodeInvalidQuantity, err.Error())
		return
	case err != nil:
		internalError(w, r, "Add cart item", err)
		return
	}
	zctx.From(ctx).Debug("Cart item added",
		zap.String("item_id", item.ID),
		zap.Int("quantity", item.Quantity),
	)
	h.writeCart(w, http.StatusOK)
}

// UpdateItem overwrites the quantity of a cart line. A quantity of zero or
// less removes it, one above the line limit is rejected.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID := r.PathValue("itemId")
	if _, ok := h.cart.Item(itemID); !ok {
		writeError(w, http.StatusNotFound, CodeNotFound, "item not found")
		return
	}
	data, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	quantity, ok, err := decodeQuantity(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "quantity required")
		return
	}
	if err := h.cart.UpdateQuantity(r.Context(), itemID, quantity); err != nil {
		writeError(w, http.StatusUnprocessableEntity, CodeInvalidQuantity, err.Error())
		return
	}
	h.writeCart(w, http.StatusOK)
}

// RemoveItem deletes a cart line. Removing an absent line succeeds.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	h.cart.RemoveItem(r.Context(), r.PathValue("itemId"))
	h.writeCart(w, http.StatusOK)
}

// ClearCart empties the cart.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.cart.Clear(r.Context())
	h.writeCart(w, http.StatusOK)
}

func (h *Handler) writeCart(w http.ResponseWriter, status int) {
	items := h.cart.Items()
	subtotal := cart.Subtotal(items)
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("items", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, it := range items {
						h.encodeItem(e, it)
					}
				})
			})
			e.Field("itemCount", func(e *jx.Encoder) { e.Int(cart.ItemCount(items)) })
			h.encodeMoney(e, "subtotal", subtotal)
			h.encodeMoney(e, "total", subtotal)
		})
	})
}

func (h *Handler) encodeItem(e *jx.Encoder, it cart.LineItem) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("itemId", func(e *jx.Encoder) { e.Str(it.ID) })
		e.Field("productId", func(e *jx.Encoder) { e.Str(it.ProductID) })
		e.Field("productName", func(e *jx.Encoder) { e.Str(it.ProductName) })
		e.Field("size", func(e *jx.Encoder) { e.Str(it.VariantLabel) })
		h.encodeMoney(e, "price", it.UnitPrice)
		e.Field("quantity", func(e *jx.Encoder) { e.Int(it.Quantity) })
		h.encodeMoney(e, "subtotal", it.LineTotal())
		e.Field("whatsappNumber", func(e *jx.Encoder) { e.Str(it.ContactChannel) })
	})
}
