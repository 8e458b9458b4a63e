package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/portfolio-metrics/internal/domain"
	"github.com/simaogato/portfolio-metrics/internal/usecase/trade"
	"github.com/simaogato/portfolio-metrics/internal/usecase/valuation"
)

// MetricsService produces the valuation report of a portfolio
type MetricsService interface {
	Metrics(ctx context.Context, portfolioID uuid.UUID, start, end time.Time) (*valuation.Report, error)
}

// BootstrapService creates initial holdings
type BootstrapService interface {
	BootstrapInitialHoldings(ctx context.Context, portfolioID uuid.UUID, t0 time.Time) ([]domain.HoldingLot, error)
}

// TradeService posts notional trades
type TradeService interface {
	PostTradeNotional(ctx context.Context, input trade.PostTradeInput) (*trade.TradeResult, error)
}

// PortfolioHandler serves the portfolio endpoints
type PortfolioHandler struct {
	metrics   MetricsService
	bootstrap BootstrapService
	trades    TradeService
}

// NewPortfolioHandler creates a new PortfolioHandler
func NewPortfolioHandler(metrics MetricsService, bootstrap BootstrapService, trades TradeService) *PortfolioHandler {
	return &PortfolioHandler{
		metrics:   metrics,
		bootstrap: bootstrap,
		trades:    trades,
	}
}

// HandleGetMetrics serves GET /api/portfolios/{id}/metrics?start_date=&end_date=
// fecha_inicio and fecha_fin are accepted as aliases.
func (h *PortfolioHandler) HandleGetMetrics(w http.ResponseWriter, r *http.Request) {
	portfolioID, err := portfolioIDParam(r)
	if err != nil {
		sendError(w, r, err)
		return
	}

	query := r.URL.Query()
	start, err := dateParam(firstNonEmpty(query.Get("start_date"), query.Get("fecha_inicio")), "start_date")
	if err != nil {
		sendError(w, r, err)
		return
	}
	end, err := dateParam(firstNonEmpty(query.Get("end_date"), query.Get("fecha_fin")), "end_date")
	if err != nil {
		sendError(w, r, err)
		return
	}

	report, err := h.metrics.Metrics(r.Context(), portfolioID, start, end)
	if err != nil {
		sendError(w, r, err)
		return
	}

	sendJSON(w, http.StatusOK, report)
}

type bootstrapRequest struct {
	T0 string `json:"t0"`
}

type lotResponse struct {
	ID            string `json:"id"`
	AssetID       string `json:"asset_id"`
	Quantity      string `json:"quantity"`
	EffectiveFrom string `json:"effective_from"`
}

type bootstrapResponse struct {
	Lots []lotResponse `json:"lots"`
}

// HandleBootstrap serves POST /api/portfolios/{id}/bootstrap
func (h *PortfolioHandler) HandleBootstrap(w http.ResponseWriter, r *http.Request) {
	portfolioID, err := portfolioIDParam(r)
	if err != nil {
		sendError(w, r, err)
		return
	}

	var req bootstrapRequest
	if err := decodeBody(w, r, &req); err != nil {
		sendError(w, r, err)
		return
	}
	t0, err := dateParam(req.T0, "t0")
	if err != nil {
		sendError(w, r, err)
		return
	}

	lots, err := h.bootstrap.BootstrapInitialHoldings(r.Context(), portfolioID, t0)
	if err != nil {
		sendError(w, r, err)
		return
	}

	resp := bootstrapResponse{Lots: make([]lotResponse, 0, len(lots))}
	for _, lot := range lots {
		resp.Lots = append(resp.Lots, toLotResponse(lot))
	}
	sendJSON(w, http.StatusCreated, resp)
}

type tradeRequest struct {
	AssetID   string           `json:"asset_id"`
	TradeDate string           `json:"trade_date"`
	AmountUSD *decimal.Decimal `json:"amount_usd"`
}

type tradeResponse struct {
	Lot           lotResponse `json:"lot"`
	TradeID       string      `json:"trade_id"`
	AmountUSD     string      `json:"amount_usd"`
	Price         string      `json:"price"`
	PriorQuantity string      `json:"prior_quantity"`
	DeltaQuantity string      `json:"delta_quantity"`
}

// HandlePostTrade serves POST /api/portfolios/{id}/trades
func (h *PortfolioHandler) HandlePostTrade(w http.ResponseWriter, r *http.Request) {
	portfolioID, err := portfolioIDParam(r)
	if err != nil {
		sendError(w, r, err)
		return
	}

	var req tradeRequest
	if err := decodeBody(w, r, &req); err != nil {
		sendError(w, r, err)
		return
	}

	assetID, err := uuid.Parse(req.AssetID)
	if err != nil {
		sendError(w, r, fmt.Errorf("%w: invalid asset_id", domain.ErrInvalidInput))
		return
	}
	tradeDate, err := dateParam(req.TradeDate, "trade_date")
	if err != nil {
		sendError(w, r, err)
		return
	}
	if req.AmountUSD == nil {
		sendError(w, r, fmt.Errorf("%w: amount_usd is required", domain.ErrInvalidInput))
		return
	}

	result, err := h.trades.PostTradeNotional(r.Context(), trade.PostTradeInput{
		PortfolioID: portfolioID,
		AssetID:     assetID,
		TradeDate:   tradeDate,
		AmountUSD:   *req.AmountUSD,
	})
	if err != nil {
		sendError(w, r, err)
		return
	}

	sendJSON(w, http.StatusCreated, tradeResponse{
		Lot:           toLotResponse(result.Lot),
		TradeID:       result.Trade.ID.String(),
		AmountUSD:     result.Trade.AmountUSD.StringFixed(domain.MoneyScale),
		Price:         result.Price.String(),
		PriorQuantity: result.PriorQuantity.String(),
		DeltaQuantity: result.DeltaQuantity.String(),
	})
}

// HandleHealthz serves GET /healthz
func HandleHealthz(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func toLotResponse(lot domain.HoldingLot) lotResponse {
	return lotResponse{
		ID:            lot.ID.String(),
		AssetID:       lot.AssetID.String(),
		Quantity:      lot.Quantity.StringFixed(domain.QuantityScale),
		EffectiveFrom: domain.FormatDate(lot.EffectiveFrom),
	}
}

func portfolioIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid portfolio id", domain.ErrInvalidInput)
	}
	return id, nil
}

func dateParam(value, name string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: %s is required (YYYY-MM-DD)", domain.ErrInvalidInput, name)
	}
	return domain.ParseDate(value)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed request body: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
