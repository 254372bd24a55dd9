package mirror_test

// fakes_test.go — dobles de los ports del exchange para los tests del engine.

import (
	"context"
	"fmt"
	"sync"

	"github.com/alejandrodnm/mirrorbot/internal/adapters/delta"
	"github.com/alejandrodnm/mirrorbot/internal/adapters/storage"
	"github.com/alejandrodnm/mirrorbot/internal/domain"
)

// fakeGateway implementa ports.OrderGateway con respuestas programables.
type fakeGateway struct {
	mu sync.Mutex

	placed    []domain.OrderRequest
	placeFn   func(attempt int, req domain.OrderRequest) (domain.PlacedOrder, error)
	positions map[int]domain.Position
	posFn     func(call int, productID int) (domain.Position, error)
	posCalls  int
	posErr    error
	balance   float64
	balErr    error
}

func (g *fakeGateway) PlaceMarketOrder(_ context.Context, _ domain.Credentials, req domain.OrderRequest) (domain.PlacedOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.placed = append(g.placed, req)
	if g.placeFn != nil {
		return g.placeFn(len(g.placed), req)
	}
	return domain.PlacedOrder{OrderID: fmt.Sprintf("order-%d", len(g.placed)), State: "closed"}, nil
}

func (g *fakeGateway) FetchPosition(_ context.Context, _ domain.Credentials, productID int) (domain.Position, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.posCalls++
	if g.posFn != nil {
		return g.posFn(g.posCalls, productID)
	}
	if g.posErr != nil {
		return domain.Position{}, g.posErr
	}
	return g.positions[productID], nil
}

func (g *fakeGateway) positionReads() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.posCalls
}

func (g *fakeGateway) FetchBalance(context.Context, domain.Credentials) (float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.balance, g.balErr
}

func (g *fakeGateway) orders() []domain.OrderRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]domain.OrderRequest(nil), g.placed...)
}

// fakeCatalog implementa ports.ProductCatalog sobre un mapa fijo.
type fakeCatalog struct {
	ids map[string]int
}

func (c *fakeCatalog) Resolve(_ context.Context, symbol string) (int, error) {
	id, ok := c.ids[symbol]
	if !ok {
		return 0, &delta.APIError{Kind: domain.KindNotFound, Code: "product_not_found", Message: symbol}
	}
	return id, nil
}

func (c *fakeCatalog) Refresh(context.Context) error { return nil }

// blindLedger envuelve el store real con un Exists que nunca ve la fila,
// simulando la carrera entre el chequeo y el insert de dos procesos.
type blindLedger struct {
	*storage.SQLiteStore
}

func (l *blindLedger) Exists(context.Context, string, int64) (bool, error) {
	return false, nil
}

// flakyLedger envuelve el store real fallando lecturas bajo demanda.
type flakyLedger struct {
	*storage.SQLiteStore
	lastExecutedErr error
}

func (l *flakyLedger) LastExecuted(ctx context.Context, followerID int64, symbol string) (*domain.CopyTrade, error) {
	if l.lastExecutedErr != nil {
		return nil, l.lastExecutedErr
	}
	return l.SQLiteStore.LastExecuted(ctx, followerID, symbol)
}

// fakeSource implementa ports.PositionSource devolviendo snapshots en orden.
type fakeSource struct {
	mu        sync.Mutex
	snapshots []domain.Snapshot
	idx       int
	err       error
}

func (s *fakeSource) FetchPositions(context.Context, domain.Credentials) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return domain.Snapshot{}, s.err
	}
	if s.idx >= len(s.snapshots) {
		return s.snapshots[len(s.snapshots)-1], nil
	}
	snap := s.snapshots[s.idx]
	s.idx++
	return snap, nil
}
