package httpserver

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/mselser95/polyarb-agent/pkg/types"
	"go.uber.org/zap"
)

// MarketLookup resolves a market from the recently fetched universe.
type MarketLookup interface {
	Lookup(marketID string) (types.BinaryMarket, bool)
}

// APIHandler serves the read-only agent API.
type APIHandler struct {
	status  func() any
	trades  func() any
	markets MarketLookup
	logger  *zap.Logger
}

// NewAPIHandler creates a new API handler. Any source may be nil; its
// route then answers 404.
func NewAPIHandler(status func() any, trades func() any, markets MarketLookup, logger *zap.Logger) *APIHandler {
	return &APIHandler{
		status:  status,
		trades:  trades,
		markets: markets,
		logger:  logger,
	}
}

// MarketResponse is the HTTP view of a normalized market.
type MarketResponse struct {
	MarketID    string  `json:"market_id"`
	ConditionID string  `json:"condition_id"`
	Question    string  `json:"question"`
	Active      bool    `json:"active"`
	Volume      float64 `json:"volume"`
	YesBid      float64 `json:"yes_bid"`
	YesAsk      float64 `json:"yes_ask"`
	NoBid       float64 `json:"no_bid"`
	NoAsk       float64 `json:"no_ask"`
	LongSum     float64 `json:"long_sum"`
	ShortSum    float64 `json:"short_sum"`
}

// ErrorResponse represents an HTTP error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HandleStatus handles GET /api/status.
func (h *APIHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if h.status == nil {
		h.writeError(w, "status not available", http.StatusNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, h.status())
}

// HandleTrades handles GET /api/trades.
func (h *APIHandler) HandleTrades(w http.ResponseWriter, r *http.Request) {
	if h.trades == nil {
		h.writeError(w, "trades not available", http.StatusNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, h.trades())
}

// HandleMarket handles GET /api/markets/{marketID}.
func (h *APIHandler) HandleMarket(w http.ResponseWriter, r *http.Request) {
	marketID := strings.TrimSpace(chi.URLParam(r, "marketID"))
	if marketID == "" {
		h.writeError(w, "missing market id", http.StatusBadRequest)
		return
	}

	if h.markets == nil {
		h.writeError(w, "market lookup not available", http.StatusNotFound)
		return
	}

	h.logger.Debug("market-request-received", zap.String("market-id", marketID))

	m, ok := h.markets.Lookup(marketID)
	if !ok {
		h.writeError(w, "market not found or not recently scanned", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, MarketResponse{
		MarketID:    m.ID,
		ConditionID: m.ConditionID,
		Question:    m.Question,
		Active:      m.Active,
		Volume:      m.Volume,
		YesBid:      m.YesBid,
		YesAsk:      m.YesAsk,
		NoBid:       m.NoBid,
		NoAsk:       m.NoAsk,
		LongSum:     m.LongSum(),
		ShortSum:    m.ShortSum(),
	})
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		h.logger.Error("failed-to-encode-response", zap.Error(err))
	}
}

// writeError writes a JSON error response.
func (h *APIHandler) writeError(w http.ResponseWriter, message string, statusCode int) {
	h.writeJSON(w, statusCode, ErrorResponse{Error: message})
}
