package delta

// products.go — catálogo refrescable símbolo → product ID.
//
// El catálogo reemplaza las tablas hardcodeadas por símbolo: un único mapa
// cargado del endpoint público y reemplazado entero en cada refresh para que
// ningún lector observe un mapa a medio actualizar.

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alejandrodnm/mirrorbot/internal/domain"
)

const productsPath = "/v2/products"

// Contract types que participan en el mirroring: derivados perpetuos vivos.
var mirrorableContracts = map[string]bool{
	"perpetual_futures": true,
	"futures":           true,
}

// Catalog implementa ports.ProductCatalog con caché en memoria.
type Catalog struct {
	client       *Client
	refreshEvery time.Duration

	mu        sync.RWMutex
	bySymbol  map[string]int
	refreshed time.Time
}

// NewCatalog crea el catálogo. refreshEvery es el intervalo grueso de
// refresco (minutos); un miss fuerza un refresh adicional antes de NotFound.
func NewCatalog(client *Client, refreshEvery time.Duration) *Catalog {
	if refreshEvery <= 0 {
		refreshEvery = 5 * time.Minute
	}
	return &Catalog{
		client:       client,
		refreshEvery: refreshEvery,
		bySymbol:     make(map[string]int),
	}
}

// Resolve devuelve el product ID del símbolo. NotFound es terminal para ese
// símbolo en este tick — el engine nunca adivina un ID.
func (c *Catalog) Resolve(ctx context.Context, symbol string) (int, error) {
	c.mu.RLock()
	id, ok := c.bySymbol[symbol]
	stale := time.Since(c.refreshed) > c.refreshEvery
	c.mu.RUnlock()

	if ok && !stale {
		return id, nil
	}

	if err := c.Refresh(ctx); err != nil {
		if ok {
			// Refresh falló pero tenemos un ID cacheado: mejor servirlo.
			slog.Warn("catalog refresh failed, serving cached id", "symbol", symbol, "err", err)
			return id, nil
		}
		return 0, fmt.Errorf("delta.Resolve: refresh: %w", err)
	}

	c.mu.RLock()
	id, ok = c.bySymbol[symbol]
	c.mu.RUnlock()
	if !ok {
		return 0, &APIError{Kind: domain.KindNotFound, Code: "product_not_found", Message: "no live product for symbol " + symbol}
	}
	return id, nil
}

// Refresh recarga el listado público completo y reemplaza el mapa entero.
func (c *Catalog) Refresh(ctx context.Context) error {
	var products []productPayload
	if err := c.client.Public(ctx, productsPath, "", &products); err != nil {
		return fmt.Errorf("delta.Refresh: fetch products: %w", err)
	}

	fresh := make(map[string]int, len(products))
	for _, p := range products {
		if p.State != "live" || !mirrorableContracts[p.ContractType] {
			continue
		}
		fresh[p.Symbol] = p.ID
	}

	c.mu.Lock()
	c.bySymbol = fresh
	c.refreshed = time.Now()
	c.mu.Unlock()

	slog.Debug("product catalog refreshed", "products", len(fresh))
	return nil
}
