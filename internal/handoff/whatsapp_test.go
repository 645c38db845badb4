package handoff

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigits(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "5511920934212", want: "5511920934212"},
		{in: "+55 (11) 92093-4212", want: "5511920934212"},
		{in: "abc", want: ""},
		{in: "", want: ""},
		{in: "٣٤", want: ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Digits(tt.in), tt.in)
	}
}

func TestEncodeText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Olá mundo\n*TOTAL: R$ 1,00*", want: "Ol%C3%A1%20mundo%0A*TOTAL%3A%20R%24%201%2C00*"},
		{in: "a+b&c=d", want: "a%2Bb%26c%3Dd"},
		{in: "-_.!~*'()", want: "-_.!~*'()"},
		{in: "#/?:@ ", want: "%23%2F%3F%3A%40%20"},
		{in: "R$\u00a030,00", want: "R%24%C2%A030%2C00"},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		got := EncodeText(tt.in)
		assert.Equal(t, tt.want, got, tt.in)

		decoded, err := url.QueryUnescape(got)
		require.NoError(t, err)
		assert.Equal(t, tt.in, decoded)
	}
}

func TestWhatsApp_Deliver(t *testing.T) {
	w := NewWhatsApp("")
	text := "*PEDIDO*\n\nPizza | Preço: R$ 30,00"

	link, err := w.Deliver(context.Background(), "+55 11 99999-0000", text)
	require.NoError(t, err)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "https", u.Scheme)
	assert.Equal(t, "wa.me", u.Host)
	assert.Equal(t, "/5511999990000", u.Path)
	assert.Equal(t, text, u.Query().Get("text"))
	assert.NotContains(t, link, "+")
}

func TestWhatsApp_CustomBase(t *testing.T) {
	w := NewWhatsApp("https://api.whatsapp.com/send")
	link, err := w.Deliver(context.Background(), "123", "hi there")
	require.NoError(t, err)
	assert.Equal(t, "https://api.whatsapp.com/send/123?text=hi%20there", link)
}

func TestWhatsApp_NoDestination(t *testing.T) {
	_, err := NewWhatsApp("").Deliver(context.Background(), "n/a", "x")
	require.ErrorIs(t, err, ErrNoDestination)
}
