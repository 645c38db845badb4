package cart

import (
	"context"
	"slices"
	"sync"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/cardapio/internal/domain/product"
)

// DefaultMaxQuantity bounds the quantity of a single line.
const DefaultMaxQuantity = 9999

var (
	// ErrInvalidQuantity is returned by AddItem for a quantity below one.
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
	// ErrQuantityLimit is returned when a line would exceed the maximum
	// quantity.
	ErrQuantityLimit = errors.New("quantity limit exceeded")
	// ErrInvalidPrice is returned by AddItem for a negative variant price.
	ErrInvalidPrice = errors.New("price must not be negative")
)

// Options configures a Cart.
type Options struct {
	// Key is the storage key. Defaults to DefaultKey.
	Key string
	// DefaultChannel is snapshotted into items whose product has no
	// contact channel.
	DefaultChannel string
	// MaxQuantity bounds each line. Defaults to DefaultMaxQuantity.
	MaxQuantity int
	Logger      *zap.Logger
}

// Cart is the single source of truth for cart contents. All mutations are
// serialized by one lock together with their observer notifications, and
// every committed mutation is persisted to the Store.
type Cart struct {
	store          Store
	key            string
	defaultChannel string
	maxQuantity    int
	lg             *zap.Logger

	mu        sync.Mutex
	items     []LineItem
	observers []Observer
}

// New creates an empty Cart backed by store. Persistence is registered as
// the first observer. Call Load to restore previously saved contents.
func New(store Store, opts Options) *Cart {
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	if opts.MaxQuantity <= 0 {
		opts.MaxQuantity = DefaultMaxQuantity
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	c := &Cart{
		store:          store,
		key:            opts.Key,
		defaultChannel: opts.DefaultChannel,
		maxQuantity:    opts.MaxQuantity,
		lg:             opts.Logger,
	}
	c.observers = append(c.observers, ObserverFunc(c.persist))
	return c
}

// Subscribe registers an observer for committed mutations.
func (c *Cart) Subscribe(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, o)
}

// AddItem adds quantity units of the product variant. An existing line for
// the same product and variant is incremented in place; otherwise a new
// line is appended with the product name, variant price and contact
// channel captured now. A line may not exceed the maximum quantity.
func (c *Cart) AddItem(ctx context.Context, p product.Product, v product.Variant, quantity int) (LineItem, error) {
	if quantity <= 0 {
		return LineItem{}, ErrInvalidQuantity
	}
	if quantity > c.maxQuantity {
		return LineItem{}, ErrQuantityLimit
	}
	if v.Price.IsNegative() {
		return LineItem{}, ErrInvalidPrice
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	id := ItemID(p.ID, v.Label)
	if i := c.index(id); i >= 0 {
		if quantity > c.maxQuantity-c.items[i].Quantity {
			return LineItem{}, ErrQuantityLimit
		}
		c.items[i].Quantity += quantity
		c.commit(ctx, Event{Kind: EventMerged, ItemID: id, Quantity: c.items[i].Quantity})
		return c.items[i], nil
	}

	channel := p.ContactChannel
	if channel == "" {
		channel = c.defaultChannel
	}
	it := LineItem{
		ID:             id,
		ProductID:      p.ID,
		ProductName:    p.Name,
		VariantLabel:   v.Label,
		UnitPrice:      v.Price,
		Quantity:       quantity,
		ContactChannel: channel,
	}
	c.items = append(c.items, it)
	c.commit(ctx, Event{Kind: EventAdded, ItemID: id, Quantity: quantity})
	return it, nil
}

// UpdateQuantity overwrites the quantity of an item. A quantity of zero or
// below removes the item. Unknown ids are ignored. A quantity above the
// maximum is rejected with ErrQuantityLimit and nothing changes.
func (c *Cart) UpdateQuantity(ctx context.Context, itemID string, quantity int) error {
	if quantity > c.maxQuantity {
		return ErrQuantityLimit
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.index(itemID)
	if i < 0 {
		return nil
	}
	if quantity <= 0 {
		c.removeAt(ctx, i)
		return nil
	}
	c.items[i].Quantity = quantity
	c.commit(ctx, Event{Kind: EventUpdated, ItemID: itemID, Quantity: quantity})
	return nil
}

// RemoveItem deletes an item. Removing an absent id is a no-op.
func (c *Cart) RemoveItem(ctx context.Context, itemID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.index(itemID); i >= 0 {
		c.removeAt(ctx, i)
	}
}

// Clear empties the cart.
func (c *Cart) Clear(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = nil
	c.commit(ctx, Event{Kind: EventCleared})
}

// RemoveOrdered takes the ordered lines out of the cart in one critical
// section. For every ordered line the ordered quantity is subtracted from
// the current line with the same id, and lines left without units are
// removed. Lines added or increased after the order snapshot was taken
// stay in the cart.
func (c *Cart) RemoveOrdered(ctx context.Context, ordered []LineItem) {
	c.mu.Lock()
	defer c.mu.Unlock()

	changed := false
	for _, o := range ordered {
		i := c.index(o.ID)
		if i < 0 {
			continue
		}
		changed = true
		if c.items[i].Quantity <= o.Quantity {
			c.items = slices.Delete(c.items, i, i+1)
			continue
		}
		c.items[i].Quantity -= o.Quantity
	}
	if !changed {
		return
	}
	if len(c.items) == 0 {
		c.items = nil
		c.commit(ctx, Event{Kind: EventCleared})
		return
	}
	c.commit(ctx, Event{Kind: EventOrdered})
}

// Items returns a copy of the current items in insertion order.
func (c *Cart) Items() []LineItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items)
}

// Item returns the item with the given id.
func (c *Cart) Item(itemID string) (LineItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.index(itemID); i >= 0 {
		return c.items[i], true
	}
	return LineItem{}, false
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// ItemCount returns the sum of all quantities.
func (c *Cart) ItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ItemCount(c.items)
}

// Subtotal returns the sum of unit price times quantity over all items.
func (c *Cart) Subtotal() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Subtotal(c.items)
}

// Total equals Subtotal: no additional charges apply.
func (c *Cart) Total() decimal.Decimal {
	return c.Subtotal()
}

// Load restores the cart from storage. Absent or malformed data leaves the
// cart empty; Load never fails. Restored items are normalized so that ids
// are unique and quantities positive.
func (c *Cart) Load(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = nil
	data, err := c.store.Get(ctx, c.key)
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			c.lg.Warn("Read stored cart", zap.String("key", c.key), zap.Error(err))
		}
		return
	}
	items, err := UnmarshalItems(data)
	if err != nil {
		c.lg.Debug("Discard malformed stored cart", zap.String("key", c.key), zap.Error(err))
		return
	}
	c.items = normalize(items, c.maxQuantity)
	c.lg.Debug("Cart restored",
		zap.String("key", c.key),
		zap.Int("lines", len(c.items)),
	)
}

// Save writes the current items to storage. Mutations save automatically;
// Save is exposed for explicit flushes.
func (c *Cart) Save(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.save(ctx, c.items)
}

func (c *Cart) save(ctx context.Context, items []LineItem) error {
	if err := c.store.Set(ctx, c.key, MarshalItems(items)); err != nil {
		return errors.Wrapf(err, "save cart %q", c.key)
	}
	return nil
}

// persist is the storage observer. Write failures keep the in-memory
// state and are logged.
func (c *Cart) persist(ctx context.Context, e Event) {
	if err := c.save(ctx, e.Items); err != nil {
		c.lg.Error("Persist cart",
			zap.String("event", string(e.Kind)),
			zap.String("item_id", e.ItemID),
			zap.Error(err),
		)
	}
}

// commit notifies observers. Must be called with mu held.
func (c *Cart) commit(ctx context.Context, e Event) {
	e.Items = slices.Clone(c.items)
	for _, o := range c.observers {
		o.OnChange(ctx, e)
	}
}

// removeAt deletes the item at index i. Must be called with mu held.
func (c *Cart) removeAt(ctx context.Context, i int) {
	id := c.items[i].ID
	c.items = slices.Delete(c.items, i, i+1)
	c.commit(ctx, Event{Kind: EventRemoved, ItemID: id})
}

func (c *Cart) index(itemID string) int {
	return slices.IndexFunc(c.items, func(it LineItem) bool {
		return it.ID == itemID
	})
}

// ItemCount returns the sum of quantities of items.
func ItemCount(items []LineItem) int {
	var n int
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

// Subtotal returns the sum of line totals of items.
func Subtotal(items []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.LineTotal())
	}
	return sum
}

// normalize drops lines without an id, with a quantity outside
// [1, maxQuantity] or with a negative price, and merges repeated ids into
// their first occurrence, capping the merged quantity at maxQuantity.
func normalize(items []LineItem, maxQuantity int) []LineItem {
	out := make([]LineItem, 0, len(items))
	seen := make(map[string]int, len(items))
	for _, it := range items {
		if it.ID == "" || it.Quantity < 1 || it.Quantity > maxQuantity || it.UnitPrice.IsNegative() {
			continue
		}
		if i, ok := seen[it.ID]; ok {
			out[i].Quantity = min(out[i].Quantity, maxQuantity-it.Quantity) + it.Quantity
			continue
		}
		seen[it.ID] = len(out)
		out = append(out, it)
	}
	return out
}
