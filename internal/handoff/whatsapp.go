// Package handoff builds deep links that pass a finished order to an
// external messaging application.
package handoff

import (
	"context"
	"strings"

	"github.com/go-faster/errors"

	"github.com/xenking/cardapio/internal/domain/order"
)

// DefaultBaseURL is the WhatsApp click-to-chat endpoint.
const DefaultBaseURL = "https://wa.me/"

// ErrNoDestination is returned when the destination has no digits.
var ErrNoDestination = errors.New("destination has no digits")

// WhatsApp produces click-to-chat links with the message pre-filled.
type WhatsApp struct {
	BaseURL string
}

var _ order.Sink = (*WhatsApp)(nil)

// NewWhatsApp returns a sink for baseURL, or DefaultBaseURL if empty.
func NewWhatsApp(baseURL string) *WhatsApp {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &WhatsApp{BaseURL: baseURL}
}

// Deliver returns "<base><digits>?text=<encoded text>".
func (w *WhatsApp) Deliver(_ context.Context, destination, text string) (string, error) {
	number := Digits(destination)
	if number == "" {
		return "", errors.Wrapf(ErrNoDestination, "destination %q", destination)
	}
	return w.BaseURL + number + "?text=" + EncodeText(text), nil
}

// Digits strips everything but ASCII digits from s.
func Digits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// EncodeText percent-encodes every byte of s except ASCII letters, digits
// and -_.!~*'(). Spaces become %20.
func EncodeText(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreservedText(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func unreservedText(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}
