package legacy

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrInvalidSize is returned when a position size is not positive.
	ErrInvalidSize = errors.New("position size must be > 0")
	// ErrInvalidPrice is returned for a non-positive entry or exit price.
	ErrInvalidPrice = errors.New("price must be > 0")
	// ErrInsufficientCapital is returned when the size exceeds free capital.
	ErrInsufficientCapital = errors.New("insufficient capital")
)

// Position is an open UP or DOWN holding. Immutable once opened.
type Position struct {
	ID         int       `json:"id"`
	MarketID   string    `json:"market_id"`
	Side       Side      `json:"side"`
	EntryPrice float64   `json:"entry_price"`
	EntryTime  time.Time `json:"entry_time"`
	SizeUSD    float64   `json:"size_usd"`
	Shares     float64   `json:"shares"`
	StopLoss   float64   `json:"stop_loss"`
	TakeProfit float64   `json:"take_profit"`
}

// UnrealizedPnL values the position at price.
func (p *Position) UnrealizedPnL(price float64) float64 {
	return (price - p.EntryPrice) * p.Shares
}

// Trade is a closed position.
type Trade struct {
	PositionID int       `json:"position_id"`
	MarketID   string    `json:"market_id"`
	Side       Side      `json:"side"`
	EntryPrice float64   `json:"entry_price"`
	EntryTime  time.Time `json:"entry_time"`
	ExitPrice  float64   `json:"exit_price"`
	ExitTime   time.Time `json:"exit_time"`
	SizeUSD    float64   `json:"size_usd"`
	Shares     float64   `json:"shares"`
	PnL        float64   `json:"pnl"`
	Reason     string    `json:"reason"`
}

// PositionManager holds paper capital, open positions and closed trades.
type PositionManager struct {
	mu        sync.RWMutex
	initial   float64
	capital   float64
	positions map[int]*Position
	order     []int
	trades    []Trade
	nextID    int
	now       func() time.Time
}

// NewPositionManager creates a manager funded with initialCapital.
// A nil clock uses time.Now.
func NewPositionManager(initialCapital float64, now func() time.Time) *PositionManager {
	if now == nil {
		now = time.Now
	}
	return &PositionManager{
		initial:   initialCapital,
		capital:   initialCapital,
		positions: make(map[int]*Position),
		trades:    make([]Trade, 0),
		nextID:    1,
		now:       now,
	}
}

// Open deducts sizeUSD from capital and opens a position.
func (m *PositionManager) Open(marketID string, side Side, entryPrice, sizeUSD, sl, tp float64) (*Position, error) {
	if !(sizeUSD > 0) {
		return nil, ErrInvalidSize
	}
	if !(entryPrice > 0) {
		return nil, fmt.Errorf("entry: %w", ErrInvalidPrice)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.capital < sizeUSD {
		return nil, fmt.Errorf("open %.2f with %.2f free: %w", sizeUSD, m.capital, ErrInsufficientCapital)
	}

	pos := &Position{
		ID:         m.nextID,
		MarketID:   marketID,
		Side:       side,
		EntryPrice: entryPrice,
		EntryTime:  m.now().UTC(),
		SizeUSD:    sizeUSD,
		Shares:     sizeUSD / entryPrice,
		StopLoss:   sl,
		TakeProfit: tp,
	}

	m.capital -= sizeUSD
	m.positions[pos.ID] = pos
	m.order = append(m.order, pos.ID)
	m.nextID++

	OpenPositions.Set(float64(len(m.positions)))
	CapitalUSD.Set(m.capital)

	return pos, nil
}

// Close sells the position at exitPrice and records the trade.
func (m *PositionManager) Close(pos *Position, exitPrice float64, reason string) (Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.closeLocked(pos, exitPrice, reason)
}

func (m *PositionManager) closeLocked(pos *Position, exitPrice float64, reason string) (Trade, error) {
	if !(exitPrice > 0) {
		return Trade{}, fmt.Errorf("exit: %w", ErrInvalidPrice)
	}
	if _, ok := m.positions[pos.ID]; !ok {
		return Trade{}, fmt.Errorf("position %d is not open", pos.ID)
	}

	exitValue := exitPrice * pos.Shares
	trade := Trade{
		PositionID: pos.ID,
		MarketID:   pos.MarketID,
		Side:       pos.Side,
		EntryPrice: pos.EntryPrice,
		EntryTime:  pos.EntryTime,
		ExitPrice:  exitPrice,
		ExitTime:   m.now().UTC(),
		SizeUSD:    pos.SizeUSD,
		Shares:     pos.Shares,
		PnL:        exitValue - pos.SizeUSD,
		Reason:     reason,
	}

	m.capital += exitValue
	delete(m.positions, pos.ID)
	for i, id := range m.order {
		if id == pos.ID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	m.trades = append(m.trades, trade)

	ClosedTradesTotal.WithLabelValues(reason).Inc()
	RealizedPnLUSD.Add(trade.PnL)
	OpenPositions.Set(float64(len(m.positions)))
	CapitalUSD.Set(m.capital)

	return trade, nil
}

// ForceCloseAll closes every open position at the exit price of its side.
func (m *PositionManager) ForceCloseAll(exitPrices map[Side]float64, reason string) ([]Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := append([]int(nil), m.order...)
	trades := make([]Trade, 0, len(ids))
	var errs []error

	for _, id := range ids {
		pos := m.positions[id]
		price, ok := exitPrices[pos.Side]
		if !ok {
			errs = append(errs, fmt.Errorf("position %d: no exit price for %s", pos.ID, pos.Side))
			continue
		}

		trade, err := m.closeLocked(pos, price, reason)
		if err != nil {
			errs = append(errs, fmt.Errorf("position %d: %w", pos.ID, err))
			continue
		}
		trades = append(trades, trade)
	}

	return trades, errors.Join(errs...)
}

// OpenPositions returns the open positions in opening order.
func (m *PositionManager) OpenPositions() []*Position {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Position, 0, len(m.order))
	for _, id := range m.order {
		p := *m.positions[id]
		out = append(out, &p)
	}
	return out
}

// OpenPositionForMarket returns the open position on marketID, if any.
func (m *PositionManager) OpenPositionForMarket(marketID string) (*Position, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, id := range m.order {
		if p := m.positions[id]; p.MarketID == marketID {
			cp := *p
			return &cp, true
		}
	}
	return nil, false
}

// Trades returns a copy of the closed trades.
func (m *PositionManager) Trades() []Trade {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Trade, len(m.trades))
	copy(out, m.trades)
	return out
}

// Capital returns the free capital.
func (m *PositionManager) Capital() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.capital
}

// InitialCapital returns the starting capital.
func (m *PositionManager) InitialCapital() float64 {
	return m.initial
}

// Summary aggregates closed trades.
type Summary struct {
	Trades  int     `json:"trades"`
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	PnL     float64 `json:"pnl"`
	Capital float64 `json:"capital"`
}

// Summary returns totals over all closed trades.
func (m *PositionManager) Summary() Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Summary{
		Trades:  len(m.trades),
		Capital: m.capital,
	}
	for _, t := range m.trades {
		s.PnL += t.PnL
		switch {
		case t.PnL > 0:
			s.Wins++
		case t.PnL < 0:
			s.Losses++
		}
	}
	return s
}

// PositionSize returns the dollar size for the next position. A size in
// (0, 1] is a fraction of capital; larger sizes are absolute and capped.
func PositionSize(capital float64, size float64) float64 {
	if size > 0 && size <= 1 {
		return capital * size
	}
	return min(size, capital)
}
