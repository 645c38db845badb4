package api

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/cardapio/internal/domain/order"
)

func decodeCustomer(data []byte) (order.Customer, error) {
	var c order.Customer
	err := decodeObject(data, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			c.Name, err = d.Str()
		case "phone":
			c.Phone, err = decodeString(d)
		case "address":
			c.Address, err = d.Str()
		case "payment":
			c.Payment, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	return c, err
}

// PlaceOrder builds the order message from the cart and returns the
// hand-off link. The ordered lines leave the cart once the link is produced.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	customer, err := decodeCustomer(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	res, err := h.checkout.Checkout(r.Context(), customer)
	if err != nil {
		var verr *order.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusUnprocessableEntity, CodeValidation, verr.Error())
			return
		}
		internalError(w, r, "Checkout failed", err)
		return
	}

	s := res.Summary
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("message", func(e *jx.Encoder) { e.Str(s.Text) })
			e.Field("destination", func(e *jx.Encoder) { e.Str(s.Destination) })
			e.Field("url", func(e *jx.Encoder) { e.Str(res.URL) })
			e.Field("itemCount", func(e *jx.Encoder) { e.Int(s.ItemCount) })
			h.encodeMoney(e, "total", s.Total)
		})
	})
}
