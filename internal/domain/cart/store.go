package cart

import (
	"context"

	"github.com/go-faster/errors"
)

// DefaultKey is the storage key holding the serialized cart.
const DefaultKey = "cardapio_cart"

// ErrKeyNotFound is returned by a Store when the key holds no value.
var ErrKeyNotFound = errors.New("key not found")

// Store is the local key-value storage backing the cart. Set must replace
// the value atomically: readers see either the old or the new value.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}
