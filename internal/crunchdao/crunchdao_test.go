package crunchdao

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Checker-Finance/signal-exports/internal/instruments"
	"github.com/Checker-Finance/signal-exports/internal/signalexport"
	"github.com/Checker-Finance/signal-exports/pkg/model"
)

var exportDate = time.Date(2024, 3, 8, 15, 30, 0, 0, time.UTC)

func testCodes() *instruments.Registry {
	r := instruments.NewRegistry(Name, zap.NewNop())
	r.Load(map[string]string{"AAPL": "R735QTJ8XC9X", "SPY": "R735QTJ8XC9X", "IBM": "R735QTJ8XC9W"})
	return r
}

func equityTargets(weights map[string]float64, order ...string) []model.PortfolioTarget {
	out := make([]model.PortfolioTarget, 0, len(order))
	for _, ticker := range order {
		out = append(out, model.NewPercentTargetFloat(model.NewEquity(ticker, "usa"), weights[ticker]))
	}
	return out
}

// ─── Ticker ───────────────────────────────────────────────────────────────────

func TestTicker(t *testing.T) {
	codes := testCodes()

	got, err := Ticker(model.NewEquity("aapl", "usa"), codes)
	require.NoError(t, err)
	assert.Equal(t, "aapl R735QTJ8XC9X", got)

	_, err = Ticker(model.NewEquity("MSFT", "usa"), codes)
	assert.ErrorIs(t, err, signalexport.ErrUnsupportedSymbol)

	_, err = Ticker(model.NewEquity("AAPL", "usa"), nil)
	assert.ErrorIs(t, err, signalexport.ErrUnsupportedSymbol)
}

// ─── Validate ─────────────────────────────────────────────────────────────────

func TestFormat_Validate(t *testing.T) {
	f := NewFormat(testCodes())
	expiry := time.Date(2021, 1, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		targets []model.PortfolioTarget
		want    bool
	}{
		{"equities", equityTargets(map[string]float64{"AAPL": 0.5, "IBM": -0.5}, "AAPL", "IBM"), true},
		{"empty", nil, false},
		{"unknown code", equityTargets(map[string]float64{"MSFT": 0.5}, "MSFT"), false},
		{"forex", []model.PortfolioTarget{model.NewPercentTargetFloat(model.NewForex("EURUSD", "oanda"), 0.2)}, false},
		{"future", []model.PortfolioTarget{model.NewPercentTargetFloat(model.NewFuture("ESZ18", "ES", "cme", expiry), 0.2)}, false},
		{"option", []model.PortfolioTarget{model.NewPercentTargetFloat(
			model.NewOption("SPY 210115C00045000", "SPY", "usa", model.OptionRightCall, decimal.NewFromInt(45), expiry), 0.2)}, false},
		{"crypto", []model.PortfolioTarget{model.NewPercentTargetFloat(model.Symbol{Ticker: "BTCUSD", Type: model.SecurityTypeCrypto}, 0.2)}, false},
		{"one bad apple", append(
			equityTargets(map[string]float64{"AAPL": 0.5}, "AAPL"),
			model.NewPercentTargetFloat(model.NewForex("EURUSD", "oanda"), 0.2)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Validate(tt.targets))
		})
	}
}

// ─── BuildMessage ─────────────────────────────────────────────────────────────

func TestFormat_BuildMessage(t *testing.T) {
	f := NewFormat(testCodes())
	msg, err := f.BuildMessage(signalexport.SendParams{
		Targets: equityTargets(map[string]float64{"AAPL": 0.25, "IBM": -0.1}, "AAPL", "IBM"),
		Date:    exportDate,
	})
	require.NoError(t, err)
	assert.Equal(t,
		"ticker,date,signal\n"+
			"AAPL R735QTJ8XC9X,2024-03-08,0.25\n"+
			"IBM R735QTJ8XC9W,2024-03-08,-0.1\n",
		string(msg))
}

func TestFormat_BuildMessage_DefaultsDateToNow(t *testing.T) {
	f := NewFormat(testCodes())
	f.now = func() time.Time { return exportDate }

	msg, err := f.BuildMessage(signalexport.SendParams{
		Targets: equityTargets(map[string]float64{"SPY": 1}, "SPY"),
	})
	require.NoError(t, err)
	assert.Equal(t, "ticker,date,signal\nSPY R735QTJ8XC9X,2024-03-08,1\n", string(msg))
}

// ─── Adapter over a fake CrunchDAO ────────────────────────────────────────────

type upload struct {
	apiKey, model, label, comment, filename, file string
}

type fakeCrunch struct {
	mu    sync.Mutex
	got   upload
	calls atomic.Int32
}

func (f *fakeCrunch) last() upload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.got
}

func (f *fakeCrunch) server(t *testing.T, status int, reply string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, submissionsPath, r.URL.Path)

		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		file, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(file)
		_ = file.Close()

		f.mu.Lock()
		f.got = upload{
			apiKey:   r.URL.Query().Get("apiKey"),
			model:    r.FormValue("model"),
			label:    r.FormValue("label"),
			comment:  r.FormValue("comment"),
			filename: hdr.Filename,
			file:     string(data),
		}
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
}

func TestAdapter_SendUploadsSubmission(t *testing.T) {
	fake := &fakeCrunch{}
	srv := fake.server(t, http.StatusOK, `{"id":1}`)
	defer srv.Close()

	a, err := New(zap.NewNop(), Config{
		APIKey: "crunch-key", Model: "alpha-1", Label: "nightly", Comment: "auto", BaseURL: srv.URL,
	}, testCodes(), nil)
	require.NoError(t, err)
	defer a.Close()

	err = a.Send(context.Background(), signalexport.SendParams{
		Targets: equityTargets(map[string]float64{"AAPL": 0.5}, "AAPL"),
		Date:    exportDate,
	})
	require.NoError(t, err)

	assert.EqualValues(t, 1, fake.calls.Load())
	assert.Equal(t, upload{
		apiKey:   "crunch-key",
		model:    "alpha-1",
		label:    "nightly",
		comment:  "auto",
		filename: "submission.csv",
		file:     "ticker,date,signal\nAAPL R735QTJ8XC9X,2024-03-08,0.5\n",
	}, fake.last())
}

func TestAdapter_RejectsNonEquityWithoutUpload(t *testing.T) {
	fake := &fakeCrunch{}
	srv := fake.server(t, http.StatusOK, `{}`)
	defer srv.Close()

	a, err := New(zap.NewNop(), Config{APIKey: "k", Model: "m", BaseURL: srv.URL}, testCodes(), nil)
	require.NoError(t, err)

	for _, sym := range []model.Symbol{
		model.NewForex("EURUSD", "oanda"),
		model.NewFuture("ESZ18", "ES", "cme", time.Date(2018, 12, 21, 0, 0, 0, 0, time.UTC)),
		{Ticker: "BTCUSD", Type: model.SecurityTypeCrypto},
	} {
		err := a.Send(context.Background(), signalexport.SendParams{
			Targets: []model.PortfolioTarget{model.NewPercentTargetFloat(sym, 0.2)},
		})
		assert.ErrorIs(t, err, signalexport.ErrRejected, sym.Ticker)
	}
	err = a.Send(context.Background(), signalexport.SendParams{})
	assert.ErrorIs(t, err, signalexport.ErrRejected, "empty batch")

	assert.Zero(t, fake.calls.Load())
}

func TestAdapter_UploadRefused(t *testing.T) {
	fake := &fakeCrunch{}
	srv := fake.server(t, http.StatusForbidden, `{"code":"INVALID_API_KEY","message":"api key revoked"}`)
	defer srv.Close()

	a, err := New(zap.NewNop(), Config{APIKey: "k", Model: "m", BaseURL: srv.URL}, testCodes(), nil)
	require.NoError(t, err)

	err = a.Send(context.Background(), signalexport.SendParams{
		Targets: equityTargets(map[string]float64{"AAPL": 0.5}, "AAPL"),
		Date:    exportDate,
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, signalexport.ErrRejected)
	assert.Contains(t, err.Error(), "INVALID_API_KEY: api key revoked")
}

func TestNew_RequiresCredentials(t *testing.T) {
	_, err := New(zap.NewNop(), Config{Model: "m"}, testCodes(), nil)
	assert.Error(t, err)
	_, err = New(zap.NewNop(), Config{APIKey: "k"}, testCodes(), nil)
	assert.Error(t, err)
}
