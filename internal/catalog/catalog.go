// Package catalog holds the in-memory menu snapshot served to the cart and
// the HTTP API.
package catalog

import (
	"context"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/cardapio/internal/domain/product"
)

// ErrMenuUnavailable is returned when no snapshot could be loaded within
// the retry window.
var ErrMenuUnavailable = errors.New("menu failed to load")

// Source fetches the full product list from a backing system.
type Source interface {
	Fetch(ctx context.Context) ([]product.Product, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) ([]product.Product, error)

// Fetch calls f(ctx).
func (f SourceFunc) Fetch(ctx context.Context) ([]product.Product, error) {
	return f(ctx)
}

// Options configures a Store.
type Options struct {
	// LoadAttempts bounds the number of fetches made by Load. Defaults to 10.
	LoadAttempts int
	// LoadInterval is the pause between attempts. Defaults to 500ms.
	LoadInterval time.Duration
	Logger       *zap.Logger
}

type snapshot struct {
	products   []product.Product
	byID       map[string]int
	categories []string
}

// Store serves catalog reads from the last successfully fetched snapshot.
type Store struct {
	src      Source
	attempts int
	interval time.Duration
	lg       *zap.Logger

	snap atomic.Pointer[snapshot]
}

var _ product.Catalog = (*Store)(nil)

// New creates an empty Store. Reads fail with ErrMenuUnavailable until a
// Load or Refresh succeeds.
func New(src Source, opts Options) *Store {
	if opts.LoadAttempts <= 0 {
		opts.LoadAttempts = 10
	}
	if opts.LoadInterval <= 0 {
		opts.LoadInterval = 500 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Store{
		src:      src,
		attempts: opts.LoadAttempts,
		interval: opts.LoadInterval,
		lg:       opts.Logger,
	}
}

// Load fetches the catalog, retrying until a non-empty snapshot is
// obtained or the attempts are exhausted.
func (s *Store) Load(ctx context.Context) error {
	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return errors.Wrap(ctx.Err(), "load catalog")
			case <-time.After(s.interval):
			}
		}
		n, err := s.refresh(ctx)
		if err == nil && n > 0 {
			s.lg.Info("Catalog loaded",
				zap.Int("products", n),
				zap.Int("attempt", attempt),
			)
			return nil
		}
		if err == nil {
			err = errors.New("catalog is empty")
		}
		lastErr = err
		s.lg.Debug("Catalog load attempt failed",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
	s.lg.Warn("Catalog unavailable",
		zap.Int("attempts", s.attempts),
		zap.Error(lastErr),
	)
	return errors.Wrapf(ErrMenuUnavailable, "after %d attempts: %v", s.attempts, lastErr)
}

// Refresh fetches the catalog once. On failure the previous snapshot is
// kept.
func (s *Store) Refresh(ctx context.Context) error {
	n, err := s.refresh(ctx)
	if err != nil {
		return err
	}
	s.lg.Debug("Catalog refreshed", zap.Int("products", n))
	return nil
}

// Run refreshes the catalog every interval until ctx is done.
func (s *Store) Run(ctx context.Context, every time.Duration) error {
	if every <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
				s.lg.Warn("Catalog refresh failed, keeping last snapshot", zap.Error(err))
			}
		}
	}
}

// Ready reports whether a snapshot is available.
func (s *Store) Ready() bool {
	return s.snap.Load() != nil
}

func (s *Store) refresh(ctx context.Context) (int, error) {
	products, err := s.src.Fetch(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "fetch catalog")
	}
	if len(products) == 0 {
		return 0, nil
	}
	s.snap.Store(build(products))
	return len(products), nil
}

func (s *Store) current() (*snapshot, error) {
	snap := s.snap.Load()
	if snap == nil {
		return nil, ErrMenuUnavailable
	}
	return snap, nil
}

// List returns every product in source order.
func (s *Store) List(_ context.Context) ([]product.Product, error) {
	snap, err := s.current()
	if err != nil {
		return nil, err
	}
	return slices.Clone(snap.products), nil
}

// GetByID returns a product by id.
func (s *Store) GetByID(_ context.Context, id string) (*product.Product, error) {
	snap, err := s.current()
	if err != nil {
		return nil, err
	}
	i, ok := snap.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	p := snap.products[i]
	return &p, nil
}

// ListByCategory returns products whose trimmed category equals category.
// IsAll categories return every product.
func (s *Store) ListByCategory(ctx context.Context, category string) ([]product.Product, error) {
	if IsAll(category) {
		return s.List(ctx)
	}
	snap, err := s.current()
	if err != nil {
		return nil, err
	}
	category = strings.TrimSpace(category)
	var out []product.Product
	for _, p := range snap.products {
		if strings.TrimSpace(p.Category) == category {
			out = append(out, p)
		}
	}
	return out, nil
}

// Categories returns the distinct trimmed categories in ascending order.
func (s *Store) Categories(_ context.Context) ([]string, error) {
	snap, err := s.current()
	if err != nil {
		return nil, err
	}
	return slices.Clone(snap.categories), nil
}

// IsAll reports whether category selects the whole menu.
func IsAll(category string) bool {
	switch strings.ToLower(strings.TrimSpace(category)) {
	case "", product.CategoryAll, "todos":
		return true
	default:
		return false
	}
}

func build(products []product.Product) *snapshot {
	snap := &snapshot{
		products: slices.Clone(products),
		byID:     make(map[string]int, len(products)),
	}
	seen := make(map[string]struct{})
	for i, p := range snap.products {
		if _, dup := snap.byID[p.ID]; !dup {
			snap.byID[p.ID] = i
		}
		c := strings.TrimSpace(p.Category)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; !ok {
			seen[c] = struct{}{}
			snap.categories = append(snap.categories, c)
		}
	}
	slices.Sort(snap.categories)
	return snap
}
