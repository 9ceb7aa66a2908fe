package testutil

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/mselser95/polyarb-agent/pkg/types"
)

// MockOrderClient simulates order placement for testing.
// Orders fill at the requested price unless configured otherwise.
type MockOrderClient struct {
	mu             sync.Mutex
	placedOrders   []MockPlacedOrder
	redeems        [][2]float64
	failOutcome    types.Outcome // fail legs for this outcome, "" for none
	failureMessage string
	redeemErr      error
	fillRatio      map[types.Outcome]float64
	orderIDCounter int

	// Rendezvous, when > 0, makes every order wait until that many orders are
	// in flight at once, failing after RendezvousTimeout.
	Rendezvous        int
	RendezvousTimeout time.Duration
	arrived           int
	gate              chan struct{}
}

// MockPlacedOrder records details of a placed order for verification.
type MockPlacedOrder struct {
	MarketID string
	Outcome  types.Outcome
	Side     types.Side
	Price    float64
	Shares   float64
	OrderID  string
}

// NewMockOrderClient creates a mock order client.
func NewMockOrderClient() *MockOrderClient {
	return &MockOrderClient{
		placedOrders:   make([]MockPlacedOrder, 0),
		fillRatio:      make(map[types.Outcome]float64),
		orderIDCounter: 1,
	}
}

// Mode returns "mock".
func (m *MockOrderClient) Mode() string {
	return "mock"
}

// CreateMarketOrder records the request and returns a fill.
func (m *MockOrderClient) CreateMarketOrder(ctx context.Context, req types.OrderRequest) (*types.Order, error) {
	if err := m.waitForPeers(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failOutcome != "" && m.failOutcome == req.Outcome {
		return nil, fmt.Errorf("mock order placement failed: %s", m.failureMessage)
	}

	shares := req.Shares
	if ratio, ok := m.fillRatio[req.Outcome]; ok {
		shares *= ratio
	}

	orderID := fmt.Sprintf("mock-order-%d", m.orderIDCounter)
	m.orderIDCounter++

	m.placedOrders = append(m.placedOrders, MockPlacedOrder{
		MarketID: req.MarketID,
		Outcome:  req.Outcome,
		Side:     req.Side,
		Price:    req.ExpectedPrice,
		Shares:   req.Shares,
		OrderID:  orderID,
	})

	return &types.Order{
		ID:       orderID,
		MarketID: req.MarketID,
		Outcome:  req.Outcome,
		Side:     req.Side,
		Price:    req.ExpectedPrice,
		Shares:   shares,
		FilledAt: time.Now(),
	}, nil
}

// Redeem records the call and returns min(yes, no), or the configured error.
func (m *MockOrderClient) Redeem(_ context.Context, _ string, yesShares, noShares float64) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.redeems = append(m.redeems, [2]float64{yesShares, noShares})
	if m.redeemErr != nil {
		return 0, m.redeemErr
	}
	if yesShares <= 0 || noShares <= 0 {
		return 0, nil
	}
	return math.Min(yesShares, noShares), nil
}

func (m *MockOrderClient) waitForPeers(ctx context.Context) error {
	m.mu.Lock()
	if m.Rendezvous <= 0 {
		m.mu.Unlock()
		return nil
	}
	if m.gate == nil {
		m.gate = make(chan struct{})
	}
	gate := m.gate
	m.arrived++
	if m.arrived == m.Rendezvous {
		close(gate)
		m.gate = nil
		m.arrived = 0
	}
	timeout := m.RendezvousTimeout
	m.mu.Unlock()

	if timeout <= 0 {
		timeout = time.Second
	}

	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(timeout):
		return errors.New("order legs were not in flight concurrently")
	}
}

// GetPlacedOrders returns all orders placed during the test.
func (m *MockOrderClient) GetPlacedOrders() []MockPlacedOrder {
	m.mu.Lock()
	defer m.mu.Unlock()

	orders := make([]MockPlacedOrder, len(m.placedOrders))
	copy(orders, m.placedOrders)
	return orders
}

// GetRedeems returns the (yes, no) share pairs passed to Redeem.
func (m *MockOrderClient) GetRedeems() [][2]float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([][2]float64, len(m.redeems))
	copy(out, m.redeems)
	return out
}

// SetFailure makes every leg for outcome fail.
func (m *MockOrderClient) SetFailure(outcome types.Outcome, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.failOutcome = outcome
	m.failureMessage = message
}

// SetRedeemError makes Redeem fail.
func (m *MockOrderClient) SetRedeemError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.redeemErr = err
}

// SetFillRatio scales the filled share count for one outcome.
func (m *MockOrderClient) SetFillRatio(outcome types.Outcome, ratio float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fillRatio[outcome] = ratio
}

// Reset clears all recorded orders.
func (m *MockOrderClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.placedOrders = make([]MockPlacedOrder, 0)
	m.redeems = nil
	m.orderIDCounter = 1
}
