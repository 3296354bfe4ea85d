package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"PariMarket/internal/config"
	"PariMarket/internal/ledger"
	"PariMarket/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger, _ := test.NewNullLogger()

	svc := service.NewMarketService(ledger.New(), service.BetLimits{}, logger)
	h := NewMarketHandler(svc, logger)
	return NewRouter(config.ServerConfig{CORSOrigins: []string{"http://localhost:3000"}}, h, logger)
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func mustOK(t *testing.T, w *httptest.ResponseRecorder) {
	t.Helper()
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func priceURL(event, outcome string) string {
	q := url.Values{}
	q.Set("eventName", event)
	q.Set("outcomeName", outcome)
	return "/getMarketPrice?" + q.Encode()
}

// seedSongCompetition 创建赛事、两个选项并下注 A:Alice-100 / B:Bob-bobAmount
func seedSongCompetition(t *testing.T, r http.Handler, bobAmount string) {
	t.Helper()
	mustOK(t, do(t, r, http.MethodPost, "/createEvent", `{"eventName":"SongCompetition"}`))
	mustOK(t, do(t, r, http.MethodPost, "/addOutcomes", `{"eventName":"SongCompetition","outcomes":["Song A","Song B"]}`))
	mustOK(t, do(t, r, http.MethodPost, "/placeBet", `{"eventName":"SongCompetition","outcomeName":"Song A","participant":"Alice","amount":100}`))
	mustOK(t, do(t, r, http.MethodPost, "/placeBet", `{"eventName":"SongCompetition","outcomeName":"Song B","participant":"Bob","amount":`+bobAmount+`}`))
}

func TestHealthCheck(t *testing.T) {
	w := do(t, newTestRouter(t), http.MethodGet, "/health", "")
	mustOK(t, w)
	if !strings.Contains(w.Body.String(), `"status":"healthy"`) {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
	if w.Header().Get(RequestIDHeader) == "" {
		t.Fatal("expected a generated request id header")
	}
}

func TestRequestIDPassthrough(t *testing.T) {
	r := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get(RequestIDHeader); got != "req-42" {
		t.Fatalf("expected request id req-42, got %q", got)
	}
}

func TestResolveMarketFlow(t *testing.T) {
	r := newTestRouter(t)
	seedSongCompetition(t, r, "200")

	w := do(t, r, http.MethodPost, "/resolveMarket", `{"eventName":"SongCompetition","outcomeName":"Song A"}`)
	mustOK(t, w)

	var resp struct {
		Message string          `json:"message"`
		Result  json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := string(resp.Result); got != `{"rewards":{"Alice":300,"Bob":0},"totalAmount":300}` {
		t.Fatalf("unexpected result: %s", got)
	}
}

func TestPlaceBetResponse(t *testing.T) {
	r := newTestRouter(t)
	mustOK(t, do(t, r, http.MethodPost, "/createEvent", `{"eventName":"Election"}`))
	mustOK(t, do(t, r, http.MethodPost, "/addOutcomes", `{"eventName":"Election","outcomes":["Candidate A"]}`))

	w := do(t, r, http.MethodPost, "/placeBet", `{"eventName":"Election","outcomeName":"Candidate A","participant":"Alice","amount":12.5}`)
	mustOK(t, w)
	var resp struct {
		BetID string                 `json:"betId"`
		Bet   service.PlaceBetResult `json:"bet"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.BetID == "" || resp.BetID != resp.Bet.BetID || resp.Bet.Amount != 12.5 {
		t.Fatalf("unexpected bet response: %s", w.Body.String())
	}
}

func TestGetMarketPrice(t *testing.T) {
	r := newTestRouter(t)
	seedSongCompetition(t, r, "400")

	for outcome, want := range map[string]float64{"Song A": 0.2, "Song B": 0.8} {
		w := do(t, r, http.MethodGet, priceURL("SongCompetition", outcome), "")
		mustOK(t, w)
		var resp struct {
			Price float64 `json:"price"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Price != want {
			t.Errorf("price(%s) = %v, want %v", outcome, resp.Price, want)
		}
	}

	w := do(t, r, http.MethodGet, "/api/markets/SongCompetition/prices", "")
	mustOK(t, w)
	if !strings.Contains(w.Body.String(), `"outcomeName":"Song B","price":0.8`) {
		t.Fatalf("unexpected prices body: %s", w.Body.String())
	}
}

func TestMarketSnapshots(t *testing.T) {
	r := newTestRouter(t)
	seedSongCompetition(t, r, "200")

	w := do(t, r, http.MethodGet, "/api/markets", "")
	mustOK(t, w)
	var list struct {
		Total int `json:"total"`
		Items []struct {
			Name       string             `json:"eventName"`
			PoolsTotal map[string]float64 `json:"poolsTotal"`
			Total      float64            `json:"total"`
		} `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if list.Total != 1 || list.Items[0].Name != "SongCompetition" || list.Items[0].Total != 300 || list.Items[0].PoolsTotal["Song B"] != 200 {
		t.Fatalf("unexpected snapshot: %s", w.Body.String())
	}

	w = do(t, r, http.MethodGet, "/api/markets/"+url.PathEscape("SongCompetition"), "")
	mustOK(t, w)
	if !strings.Contains(w.Body.String(), `"participants":["Alice","Bob"]`) {
		t.Fatalf("unexpected event body: %s", w.Body.String())
	}
}

func TestErrorStatusCodes(t *testing.T) {
	r := newTestRouter(t)
	mustOK(t, do(t, r, http.MethodPost, "/createEvent", `{"eventName":"SongCompetition"}`))
	mustOK(t, do(t, r, http.MethodPost, "/addOutcomes", `{"eventName":"SongCompetition","outcomes":["Song A","Song B"]}`))

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"duplicate event", http.MethodPost, "/createEvent", `{"eventName":"SongCompetition"}`, http.StatusConflict},
		{"missing event name", http.MethodPost, "/createEvent", `{}`, http.StatusBadRequest},
		{"non-string event name", http.MethodPost, "/createEvent", `{"eventName":42}`, http.StatusBadRequest},
		{"malformed json", http.MethodPost, "/createEvent", `{"eventName":`, http.StatusBadRequest},
		{"outcomes not array", http.MethodPost, "/addOutcomes", `{"eventName":"SongCompetition","outcomes":"Song C"}`, http.StatusBadRequest},
		{"outcomes missing", http.MethodPost, "/addOutcomes", `{"eventName":"SongCompetition"}`, http.StatusBadRequest},
		{"outcomes unknown event", http.MethodPost, "/addOutcomes", `{"eventName":"Nope","outcomes":["X"]}`, http.StatusNotFound},
		{"bet unknown event", http.MethodPost, "/placeBet", `{"eventName":"Nope","outcomeName":"Song A","participant":"Alice","amount":1}`, http.StatusNotFound},
		{"bet unknown outcome", http.MethodPost, "/placeBet", `{"eventName":"SongCompetition","outcomeName":"Song Z","participant":"Alice","amount":1}`, http.StatusNotFound},
		{"bet zero amount", http.MethodPost, "/placeBet", `{"eventName":"SongCompetition","outcomeName":"Song A","participant":"Alice","amount":0}`, http.StatusBadRequest},
		{"bet negative amount", http.MethodPost, "/placeBet", `{"eventName":"SongCompetition","outcomeName":"Song A","participant":"Alice","amount":-3}`, http.StatusBadRequest},
		{"bet non-numeric amount", http.MethodPost, "/placeBet", `{"eventName":"SongCompetition","outcomeName":"Song A","participant":"Alice","amount":"ten"}`, http.StatusBadRequest},
		{"bet non-string participant", http.MethodPost, "/placeBet", `{"eventName":"SongCompetition","outcomeName":"Song A","participant":7,"amount":1}`, http.StatusBadRequest},
		{"resolve unknown event", http.MethodPost, "/resolveMarket", `{"eventName":"Nope","outcomeName":"Song A"}`, http.StatusNotFound},
		{"resolve without bets", http.MethodPost, "/resolveMarket", `{"eventName":"SongCompetition","outcomeName":"Song A"}`, http.StatusUnprocessableEntity},
		{"price missing params", http.MethodGet, "/getMarketPrice?eventName=SongCompetition", "", http.StatusBadRequest},
		{"price unknown event", http.MethodGet, priceURL("Nope", "Song A"), "", http.StatusNotFound},
		{"price without bets", http.MethodGet, priceURL("SongCompetition", "Song A"), "", http.StatusUnprocessableEntity},
		{"snapshot unknown event", http.MethodGet, "/api/markets/Nope", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, tt.method, tt.path, tt.body)
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), `"error"`) {
				t.Fatalf("expected error body, got %s", w.Body.String())
			}
		})
	}
}

func TestBetAfterResolutionRejected(t *testing.T) {
	r := newTestRouter(t)
	seedSongCompetition(t, r, "200")
	mustOK(t, do(t, r, http.MethodPost, "/resolveMarket", `{"eventName":"SongCompetition","outcomeName":"Song A"}`))

	w := do(t, r, http.MethodPost, "/placeBet", `{"eventName":"SongCompetition","outcomeName":"Song B","participant":"Carol","amount":5}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(t)
	req := httptest.NewRequest(http.MethodOptions, "/placeBet", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("expected allowed origin header, got %q (status %d)", got, w.Code)
	}
}
