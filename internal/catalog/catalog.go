package catalog

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var ErrEmptyCatalog = errors.New("catalog_membership_products_empty")

// Product is a catalog entry. Membership marks products whose revenue counts
// as membership revenue.
type Product struct {
	ID         string `mapstructure:"id"`
	Name       string `mapstructure:"name"`
	Membership bool   `mapstructure:"membership"`
}

// Catalog is an immutable snapshot of the product catalog.
type Catalog struct {
	membership map[string]struct{}
	names      map[string]string
}

func DefaultProducts() []Product {
	return []Product{
		{ID: "prod_NvpQdpWqm1BKPI", Name: "Individual (non-renewal)", Membership: true},
		{ID: "prod_NvUCgt8uiPmLkZ", Name: "Household (non-renewal)", Membership: true},
		{ID: "6rrpathkccwkgr9q6guk6chh6cvkgd1kcmr3jd1d6rrpathq61hk8c1p65gp8r9r68tp8rhrctgk6r8", Name: "Senior/Student", Membership: true},
		{ID: "6rrpathkcct38db16rt3cr9jc4tp8ctr6xk38r9d6rrpathq61hk8c1p65gp8r9r68tp8rhrctgk6r8", Name: "Household", Membership: true},
		{ID: "6rrpathkccu68dtr64tp6cv1cmt62cb474u68e9d6rrpathq61hk8c1p65gp8r9r68tp8rhrctgk6r8", Name: "Individual", Membership: true},
	}
}

func New(products []Product) (Catalog, error) {
	c := Catalog{
		membership: make(map[string]struct{}),
		names:      make(map[string]string),
	}
	for _, p := range products {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			continue
		}
		if name := strings.TrimSpace(p.Name); name != "" {
			c.names[id] = name
		}
		if p.Membership {
			c.membership[id] = struct{}{}
		}
	}
	if len(c.membership) == 0 {
		return Catalog{}, ErrEmptyCatalog
	}
	return c, nil
}

func Default() Catalog {
	c, _ := New(DefaultProducts())
	return c
}

// IsMembership reports whether productID is on the membership allow-list.
func (c Catalog) IsMembership(productID string) bool {
	_, ok := c.membership[productID]
	return ok
}

// Name returns the display name, or the id itself when the product is unknown.
func (c Catalog) Name(productID string) string {
	if name, ok := c.names[productID]; ok {
		return name
	}
	return productID
}

type fileConfig struct {
	Products []Product `mapstructure:"products"`
}

// Holder serves the current catalog and swaps it when the backing file changes.
type Holder struct {
	current atomic.Value // holds Catalog
}

func NewStaticHolder(c Catalog) *Holder {
	h := &Holder{}
	h.current.Store(c)
	return h
}

// NewHolder loads the catalog from path. An empty path serves the defaults.
// When a file is used it is watched and invalid edits are ignored.
func NewHolder(path string, log *zap.Logger) (*Holder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("catalog")

	path = strings.TrimSpace(path)
	if path == "" {
		return NewStaticHolder(Default()), nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	initial, err := decode(v)
	if err != nil {
		return nil, err
	}
	holder := NewStaticHolder(initial)

	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decode(v)
		if err != nil {
			log.Warn("catalog reload ignored", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("catalog reloaded", zap.String("file", e.Name))
	})
	v.WatchConfig()

	return holder, nil
}

func decode(v *viper.Viper) (Catalog, error) {
	var cfg fileConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return Catalog{}, err
	}
	return New(cfg.Products)
}

func (h *Holder) Get() Catalog {
	return h.current.Load().(Catalog)
}
