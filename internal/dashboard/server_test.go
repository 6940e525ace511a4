package dashboard

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mautomic/optrader/internal/models"
	"github.com/mautomic/optrader/internal/portfolio"
	"github.com/mautomic/optrader/internal/storage"
)

type noopStrategy struct{}

func (noopStrategy) Run(*models.Snapshot) error { return nil }

func testServer(t *testing.T) *Server {
	t.Helper()
	store := storage.NewMockPositionStore()
	require.NoError(t, store.Insert(&models.Position{
		Symbol: "SPY_091826C505", Quantity: 1, LastPrice: 6.00,
		UnrealizedPnL: 100, Commission: 0.65, Status: models.StatusOpen,
	}))
	require.NoError(t, store.Insert(&models.Position{
		Symbol: "SPY_082826P440", RealizedPnL: -50, Commission: 1.30,
		Status: models.StatusClosed,
	}))
	require.NoError(t, store.Insert(&models.Position{
		Symbol: "QQQ_082826C400", RealizedPnL: 200, Commission: 1.30,
		Status: models.StatusClosed,
	}))

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	quiet := log.New(io.Discard, "", 0)
	m := portfolio.NewManager("unusual-volume", noopStrategy{}, store, quiet)
	return NewServer(Config{Port: 9000}, []*portfolio.Manager{m}, logger)
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	rec := get(t, testServer(t), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestPortfoliosEndpoint(t *testing.T) {
	rec := get(t, testServer(t), "/api/portfolios")
	require.Equal(t, http.StatusOK, rec.Code)

	var names []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &names))
	assert.Equal(t, []string{"unusual-volume"}, names)
}

func TestPositionsEndpoint(t *testing.T) {
	rec := get(t, testServer(t), "/api/positions/unusual-volume")
	require.Equal(t, http.StatusOK, rec.Code)

	var positions []models.Position
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &positions))
	assert.Len(t, positions, 3)
}

func TestPositionsEndpointUnknownPortfolio(t *testing.T) {
	rec := get(t, testServer(t), "/api/positions/nonexistent")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatsEndpoint(t *testing.T) {
	rec := get(t, testServer(t), "/api/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats []Statistics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	require.Len(t, stats, 1)

	st := stats[0]
	assert.Equal(t, "unusual-volume", st.Portfolio)
	assert.Equal(t, 1, st.OpenPositions)
	assert.Equal(t, 2, st.ClosedTrades)
	assert.Equal(t, 1, st.WinningTrades)
	assert.Equal(t, 1, st.LosingTrades)
	assert.InDelta(t, 50.0, st.WinRate, 1e-9)
	assert.InDelta(t, 150.0, st.RealizedPnL, 1e-9)
	assert.InDelta(t, 100.0, st.UnrealizedPnL, 1e-9)
	assert.InDelta(t, 3.25, st.Commission, 1e-9)
}
