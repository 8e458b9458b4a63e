package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/portfolio-metrics/internal/adapter/repository/memory"
	"github.com/simaogato/portfolio-metrics/internal/domain"
	"github.com/simaogato/portfolio-metrics/internal/usecase/bootstrap"
	"github.com/simaogato/portfolio-metrics/internal/usecase/trade"
	"github.com/simaogato/portfolio-metrics/internal/usecase/valuation"
)

const testToken = "secret-token"

type testEnv struct {
	router    http.Handler
	store     *memory.Store
	portfolio *domain.Portfolio
	us, eu    *domain.Asset
}

// newTestEnv loads the inception scenario: weights 0.6/0.4, prices 10/20 at 2022-02-15, value 1e9
func newTestEnv(t *testing.T, cfg RouterConfig) *testEnv {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	t0 := domain.NewDate(2022, time.February, 15)

	portfolio := &domain.Portfolio{Name: "Portafolio 1", InceptionDate: t0, InitialValueUSD: decimal.NewFromInt(1_000_000_000)}
	require.NoError(t, store.Portfolios().Create(ctx, portfolio))
	us, err := store.Assets().GetOrCreate(ctx, "EEUU")
	require.NoError(t, err)
	eu, err := store.Assets().GetOrCreate(ctx, "Europa")
	require.NoError(t, err)

	_, err = store.Prices().InsertPrices(ctx, []domain.PriceObservation{
		{AssetID: us.ID, Date: t0, Price: decimal.NewFromInt(10)},
		{AssetID: eu.ID, Date: t0, Price: decimal.NewFromInt(20)},
	})
	require.NoError(t, err)
	require.NoError(t, store.Weights().ReplaceInitialWeights(ctx, portfolio.ID, domain.InitialWeights{
		{PortfolioID: portfolio.ID, AssetID: us.ID, Weight: decimal.RequireFromString("0.6")},
		{PortfolioID: portfolio.ID, AssetID: eu.ID, Weight: decimal.RequireFromString("0.4")},
	}))

	if cfg.APIToken == "" {
		cfg.APIToken = testToken
	}
	handler := NewPortfolioHandler(
		valuation.NewValuationService(store, time.Minute),
		bootstrap.NewBootstrapService(store),
		trade.NewTradeService(store),
	)

	return &testEnv{
		router:    NewRouter(handler, cfg),
		store:     store,
		portfolio: portfolio,
		us:        us,
		eu:        eu,
	}
}

func (e *testEnv) do(t *testing.T, method, path, body string, authorized bool) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if authorized {
		req.Header.Set("Authorization", "Bearer "+testToken)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) path(suffix string) string {
	return "/api/portfolios/" + e.portfolio.ID.String() + suffix
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestBootstrapThenMetrics(t *testing.T) {
	env := newTestEnv(t, RouterConfig{})

	rec := env.do(t, http.MethodPost, env.path("/bootstrap"), `{"t0":"2022-02-15"}`, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created bootstrapResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Len(t, created.Lots, 2)
	quantities := map[string]string{}
	for _, lot := range created.Lots {
		quantities[lot.AssetID] = lot.Quantity
	}
	assert.Equal(t, "60000000.000000000000", quantities[env.us.ID.String()])
	assert.Equal(t, "20000000.000000000000", quantities[env.eu.ID.String()])

	rec = env.do(t, http.MethodGet, env.path("/metrics?start_date=2022-02-15&end_date=2022-02-15"), "", false)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	var report valuation.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	require.Len(t, report.Values, 1)
	assert.Equal(t, "2022-02-15", report.Values[0].Date)
	assert.Equal(t, 1e9, report.Values[0].Value)
	require.Len(t, report.Weights, 1)
	assert.InDelta(t, 0.6, report.Weights[0].Weights["EEUU"], 1e-12)
	assert.InDelta(t, 0.4, report.Weights[0].Weights["Europa"], 1e-12)

	// fecha_inicio and fecha_fin are accepted as aliases
	rec = env.do(t, http.MethodGet, env.path("/metrics?fecha_inicio=2022-02-15&fecha_fin=2022-02-20"), "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Len(t, report.Values, 1)
}

func TestMetrics_ClientErrors(t *testing.T) {
	env := newTestEnv(t, RouterConfig{})

	tests := []struct {
		name string
		path string
		code int
	}{
		{"malformed date", env.path("/metrics?start_date=15-02-2022&end_date=2022-02-15"), http.StatusBadRequest},
		{"missing end", env.path("/metrics?start_date=2022-02-15"), http.StatusBadRequest},
		{"end before start", env.path("/metrics?start_date=2022-02-15&end_date=2022-02-14"), http.StatusBadRequest},
		{"malformed id", "/api/portfolios/42/metrics?start_date=2022-02-15&end_date=2022-02-15", http.StatusBadRequest},
		{"unknown portfolio", "/api/portfolios/" + uuid.NewString() + "/metrics?start_date=2022-02-15&end_date=2022-02-15", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, tt.path, "", false)
			assert.Equal(t, tt.code, rec.Code)
			assert.NotEmpty(t, errorMessage(t, rec))
		})
	}
}

func TestEmptyRangeReturnsEmptyArrays(t *testing.T) {
	env := newTestEnv(t, RouterConfig{})

	rec := env.do(t, http.MethodGet, env.path("/metrics?start_date=2023-01-01&end_date=2023-12-31"), "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"weights":[],"values":[]}`, rec.Body.String())
}

func TestMutationsRequireToken(t *testing.T) {
	env := newTestEnv(t, RouterConfig{})

	rec := env.do(t, http.MethodPost, env.path("/bootstrap"), `{"t0":"2022-02-15"}`, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, env.path("/bootstrap"), strings.NewReader(`{"t0":"2022-02-15"}`))
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	held, err := env.store.Lots().HeldAssetIDs(context.Background(), env.portfolio.ID)
	require.NoError(t, err)
	assert.Empty(t, held)
}

func TestBootstrap_MissingPriceIsUnprocessable(t *testing.T) {
	env := newTestEnv(t, RouterConfig{})

	rec := env.do(t, http.MethodPost, env.path("/bootstrap"), `{"t0":"2022-02-16"}`, true)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "missing price")
}

func TestPostTrade(t *testing.T) {
	env := newTestEnv(t, RouterConfig{})
	rec := env.do(t, http.MethodPost, env.path("/bootstrap"), `{"t0":"2022-02-15"}`, true)
	require.Equal(t, http.StatusCreated, rec.Code)

	t.Run("buy", func(t *testing.T) {
		body := `{"asset_id":"` + env.us.ID.String() + `","trade_date":"2022-02-15","amount_usd":"1000.50"}`
		rec := env.do(t, http.MethodPost, env.path("/trades"), body, true)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp tradeResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "60000100.050000000000", resp.Lot.Quantity)
		assert.Equal(t, "1000.50", resp.AmountUSD)
		assert.Equal(t, "100.05", resp.DeltaQuantity)
	})

	t.Run("numeric amount is accepted", func(t *testing.T) {
		body := `{"asset_id":"` + env.eu.ID.String() + `","trade_date":"2022-02-15","amount_usd":-200}`
		rec := env.do(t, http.MethodPost, env.path("/trades"), body, true)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	})

	t.Run("negative result", func(t *testing.T) {
		body := `{"asset_id":"` + env.eu.ID.String() + `","trade_date":"2022-02-15","amount_usd":"-1000000000"}`
		rec := env.do(t, http.MethodPost, env.path("/trades"), body, true)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("missing amount", func(t *testing.T) {
		body := `{"asset_id":"` + env.eu.ID.String() + `","trade_date":"2022-02-15"}`
		rec := env.do(t, http.MethodPost, env.path("/trades"), body, true)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown field", func(t *testing.T) {
		body := `{"asset":"EEUU","trade_date":"2022-02-15","amount_usd":"1"}`
		rec := env.do(t, http.MethodPost, env.path("/trades"), body, true)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown asset", func(t *testing.T) {
		body := `{"asset_id":"` + uuid.NewString() + `","trade_date":"2022-02-15","amount_usd":"1"}`
		rec := env.do(t, http.MethodPost, env.path("/trades"), body, true)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, RouterConfig{RateLimitRPS: 0.001, RateLimitBurst: 1})

	rec := env.do(t, http.MethodGet, env.path("/metrics?start_date=2022-02-15&end_date=2022-02-15"), "", false)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, env.path("/metrics?start_date=2022-02-15&end_date=2022-02-15"), "", false)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// health checks are not rate limited
	rec = env.do(t, http.MethodGet, "/healthz", "", false)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthzAndSignatureHeader(t *testing.T) {
	env := newTestEnv(t, RouterConfig{SignatureMsg: "hola"})

	rec := env.do(t, http.MethodGet, "/healthz", "", false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "hola", rec.Header().Get("X-Mat-Egg"))

	rec = env.do(t, http.MethodGet, "/nope", "", false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(domain.ErrInvalidRange))
	assert.Equal(t, http.StatusNotFound, statusFor(domain.ErrNotFound))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(domain.ErrNegativeResult))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}

func TestErrorBodyCarriesRequestID(t *testing.T) {
	env := newTestEnv(t, RouterConfig{})

	rec := env.do(t, http.MethodGet, env.path("/metrics?start_date=2022-02-15"), "", false)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["requestID"])
	assert.Equal(t, rec.Header().Get(RequestIDHeader), body["requestID"])
}

func TestSendError_MasksInternalErrors(t *testing.T) {
	handler := ContextualLoggerMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sendError(w, r, assert.AnError)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "internal error", body["error"])
	assert.Equal(t, rec.Header().Get(RequestIDHeader), body["requestID"])

	// without the middleware there is no id to report
	rec = httptest.NewRecorder()
	sendError(rec, httptest.NewRequest(http.MethodGet, "/", nil), assert.AnError)
	var bare map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bare))
	assert.NotContains(t, bare, "requestID")
}

func TestRateLimit_ZeroDisables(t *testing.T) {
	env := newTestEnv(t, RouterConfig{RateLimitRPS: 0, RateLimitBurst: 0})

	for i := 0; i < 5; i++ {
		rec := env.do(t, http.MethodGet, env.path("/metrics?start_date=2022-02-15&end_date=2022-02-15"), "", false)
		require.Equal(t, http.StatusOK, rec.Code)
	}
}
