package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/simaogato/portfolio-metrics/internal/domain"
	"github.com/simaogato/portfolio-metrics/internal/logger"
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

// Server implements the PortfolioService gRPC server
type Server struct {
	MetricsService   MetricsService
	BootstrapService BootstrapService
	TradeService     TradeService
}

var _ PortfolioServiceServer = (*Server)(nil)

// NewServer creates a new gRPC server instance
func NewServer(
	metricsService MetricsService,
	bootstrapService BootstrapService,
	tradeService TradeService,
) *Server {
	return &Server{
		MetricsService:   metricsService,
		BootstrapService: bootstrapService,
		TradeService:     tradeService,
	}
}

// GetMetrics handles the GetMetrics RPC
// Request: {portfolio_id, start_date, end_date}; response: {weights: [...], values: [...]}
func (s *Server) GetMetrics(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	portfolioID, err := uuidField(req, "portfolio_id")
	if err != nil {
		return nil, err
	}
	start, err := dateField(req, "start_date")
	if err != nil {
		return nil, err
	}
	end, err := dateField(req, "end_date")
	if err != nil {
		return nil, err
	}

	report, err := s.MetricsService.Metrics(ctx, portfolioID, start, end)
	if err != nil {
		return nil, mapError(ctx, err)
	}

	return toStruct(ctx, report)
}

type lotMessage struct {
	ID            string `json:"id"`
	AssetID       string `json:"asset_id"`
	Quantity      string `json:"quantity"`
	EffectiveFrom string `json:"effective_from"`
}

func toLotMessage(lot domain.HoldingLot) lotMessage {
	return lotMessage{
		ID:            lot.ID.String(),
		AssetID:       lot.AssetID.String(),
		Quantity:      lot.Quantity.StringFixed(domain.QuantityScale),
		EffectiveFrom: domain.FormatDate(lot.EffectiveFrom),
	}
}

// BootstrapHoldings handles the BootstrapHoldings RPC
// Request: {portfolio_id, t0}; response: {lots: [...]}
func (s *Server) BootstrapHoldings(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	portfolioID, err := uuidField(req, "portfolio_id")
	if err != nil {
		return nil, err
	}
	t0, err := dateField(req, "t0")
	if err != nil {
		return nil, err
	}

	lots, err := s.BootstrapService.BootstrapInitialHoldings(ctx, portfolioID, t0)
	if err != nil {
		return nil, mapError(ctx, err)
	}

	resp := struct {
		Lots []lotMessage `json:"lots"`
	}{Lots: make([]lotMessage, 0, len(lots))}
	for _, lot := range lots {
		resp.Lots = append(resp.Lots, toLotMessage(lot))
	}

	return toStruct(ctx, resp)
}

// PostTrade handles the PostTrade RPC
// Request: {portfolio_id, asset_id, trade_date, amount_usd}; amount_usd should be a decimal
// string, numbers are accepted but carry float64 precision only.
func (s *Server) PostTrade(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	portfolioID, err := uuidField(req, "portfolio_id")
	if err != nil {
		return nil, err
	}
	assetID, err := uuidField(req, "asset_id")
	if err != nil {
		return nil, err
	}
	tradeDate, err := dateField(req, "trade_date")
	if err != nil {
		return nil, err
	}
	amount, err := decimalField(req, "amount_usd")
	if err != nil {
		return nil, err
	}

	result, err := s.TradeService.PostTradeNotional(ctx, trade.PostTradeInput{
		PortfolioID: portfolioID,
		AssetID:     assetID,
		TradeDate:   tradeDate,
		AmountUSD:   amount,
	})
	if err != nil {
		return nil, mapError(ctx, err)
	}

	return toStruct(ctx, struct {
		Lot           lotMessage `json:"lot"`
		TradeID       string     `json:"trade_id"`
		AmountUSD     string     `json:"amount_usd"`
		Price         string     `json:"price"`
		PriorQuantity string     `json:"prior_quantity"`
		DeltaQuantity string     `json:"delta_quantity"`
	}{
		Lot:           toLotMessage(result.Lot),
		TradeID:       result.Trade.ID.String(),
		AmountUSD:     result.Trade.AmountUSD.StringFixed(domain.MoneyScale),
		Price:         result.Price.String(),
		PriorQuantity: result.PriorQuantity.String(),
		DeltaQuantity: result.DeltaQuantity.String(),
	})
}

func stringField(req *structpb.Struct, name string) (string, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return "", status.Errorf(codes.InvalidArgument, "%s is required", name)
	}
	sv, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", status.Errorf(codes.InvalidArgument, "%s must be a string", name)
	}
	return sv.StringValue, nil
}

func uuidField(req *structpb.Struct, name string) (uuid.UUID, error) {
	s, err := stringField(req, name)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "invalid %s format: %v", name, err)
	}
	return id, nil
}

func dateField(req *structpb.Struct, name string) (time.Time, error) {
	s, err := stringField(req, name)
	if err != nil {
		return time.Time{}, err
	}
	d, err := domain.ParseDate(s)
	if err != nil {
		return time.Time{}, status.Errorf(codes.InvalidArgument, "invalid %s: %v", name, err)
	}
	return d, nil
}

func decimalField(req *structpb.Struct, name string) (decimal.Decimal, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return decimal.Zero, status.Errorf(codes.InvalidArgument, "%s is required", name)
	}

	switch kind := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		d, err := decimal.NewFromString(kind.StringValue)
		if err != nil {
			return decimal.Zero, status.Errorf(codes.InvalidArgument, "invalid %s format: %v", name, err)
		}
		return d, nil
	case *structpb.Value_NumberValue:
		return decimal.NewFromFloat(kind.NumberValue), nil
	default:
		return decimal.Zero, status.Errorf(codes.InvalidArgument, "%s must be a decimal string or number", name)
	}
}

// toStruct converts a JSON-tagged response into a google.protobuf.Struct
func toStruct(ctx context.Context, v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, mapError(ctx, fmt.Errorf("failed to encode response: %w", err))
	}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, mapError(ctx, fmt.Errorf("failed to encode response: %w", err))
	}

	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, mapError(ctx, fmt.Errorf("failed to encode response: %w", err))
	}
	return out, nil
}

// mapError converts domain errors to gRPC status errors
func mapError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidRange):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrMissingPrice),
		errors.Is(err, domain.ErrMissingPriorHolding),
		errors.Is(err, domain.ErrNegativeResult):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		logger.FromContext(ctx).Error("Unhandled error", "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}
