package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"maitred/internal/cart"
	"maitred/internal/config"
	"maitred/internal/contextinfo"
	"maitred/internal/database"
	"maitred/internal/dialogue"
	"maitred/internal/llm"
	"maitred/internal/menu"
	"maitred/internal/monitoring"
	"maitred/internal/orders"
	"maitred/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedCompleter struct {
	mu    sync.Mutex
	reply string
	block chan struct{}
}

func (s *scriptedCompleter) Complete(ctx context.Context, _ []llm.Message, _ llm.Params) (string, error) {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reply, nil
}

type fixedContext contextinfo.Snapshot

func (f fixedContext) Snapshot() contextinfo.Snapshot { return contextinfo.Snapshot(f) }

func newTestServer(t *testing.T, completer llm.Completer) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, _ := test.NewNullLogger()

	db, err := database.Setup(database.DriverSQLite, filepath.Join(t.TempDir(), "api.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	metrics := monitoring.NewMetrics(monitoring.NewMonitor())
	repo := menu.NewGormRepository(db)
	store := menu.NewStore(menu.NewRepositorySource(repo), log, metrics)
	require.NoError(t, store.Load(context.Background()))

	snap := contextinfo.Compute(time.Date(2025, time.December, 25, 12, 0, 0, 0, time.UTC), time.UTC)
	ctxSource := fixedContext(snap)

	return NewServer(Deps{
		Config:   config.Defaults(),
		DB:       db,
		Menu:     store,
		MenuRepo: repo,
		Sessions: session.NewManager("test-secret", time.Hour, log, metrics),
		Engine:   dialogue.NewEngine(completer, "fake", store, ctxSource, log, metrics),
		Checkout: orders.NewCheckout(orders.NewGormRepository(db), log, metrics),
		Context:  ctxSource,
		Metrics:  metrics,
		Log:      log,
	})
}

func (s *Server) do(method, path, token, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(sessionHeader, token)
	}
	s.Router().ServeHTTP(w, req)
	return w
}

func newSession(t *testing.T, s *Server) string {
	t.Helper()
	w := s.do(http.MethodPost, "/api/sessions", "", "")
	require.Equal(t, http.StatusCreated, w.Code)
	var resp struct {
		Token     string `json:"token"`
		SessionID string `json:"session_id"`
		Language  string `json:"language"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	assert.Equal(t, "en", resp.Language)
	return resp.Token
}

type viewBody struct {
	View struct {
		Cards []struct {
			ID          int    `json:"id"`
			Recommended bool   `json:"recommended"`
			Badge       string `json:"badge"`
		} `json:"cards"`
		Cart struct {
			ItemCount       int    `json:"item_count"`
			Total           string `json:"total"`
			CheckoutEnabled bool   `json:"checkout_enabled"`
			EmptyText       string `json:"empty_text"`
		} `json:"cart"`
	} `json:"view"`
	Message string `json:"message"`
	Result  *struct {
		Kind            string `json:"kind"`
		Reply           string `json:"reply"`
		Recommendations []int  `json:"recommendations"`
	} `json:"result"`
}

func decodeView(t *testing.T, w *httptest.ResponseRecorder) viewBody {
	t.Helper()
	var v viewBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, &scriptedCompleter{})
	w := s.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","database":"connected"}`, w.Body.String())
}

func TestSessionRequired(t *testing.T) {
	s := newTestServer(t, &scriptedCompleter{})

	w := s.do(http.MethodGet, "/api/view", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/api/view", "garbage", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := newSession(t, s)
	w = s.do(http.MethodGet, "/api/view", token, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(sessionHeader))
}

func TestBearerToken(t *testing.T) {
	s := newTestServer(t, &scriptedCompleter{})
	token := newSession(t, s)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	s.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCartFlow(t *testing.T) {
	s := newTestServer(t, &scriptedCompleter{})
	token := newSession(t, s)

	w := s.do(http.MethodPost, "/api/cart/items", token, `{"dish_id": 1}`)
	require.Equal(t, http.StatusOK, w.Code)
	v := decodeView(t, w)
	assert.Equal(t, 1, v.View.Cart.ItemCount)
	assert.Equal(t, "$8.99", v.View.Cart.Total)
	assert.True(t, v.View.Cart.CheckoutEnabled)

	w = s.do(http.MethodPatch, "/api/cart/items/1", token, `{"delta": 2}`)
	require.Equal(t, http.StatusOK, w.Code)
	v = decodeView(t, w)
	assert.Equal(t, 3, v.View.Cart.ItemCount)
	assert.Equal(t, "$26.97", v.View.Cart.Total)

	w = s.do(http.MethodPost, "/api/cart/items", token, `{"dish_id": 999}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodDelete, "/api/cart/items/1", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	v = decodeView(t, w)
	assert.Equal(t, 0, v.View.Cart.ItemCount)
	assert.False(t, v.View.Cart.CheckoutEnabled)
	assert.Equal(t, "Your cart is empty", v.View.Cart.EmptyText)
}

func TestBadCategoryRejectedBeforeMutation(t *testing.T) {
	fc := &scriptedCompleter{reply: "Here you go. [EXTRACT: preferences:low-carb]"}
	s := newTestServer(t, fc)
	token := newSession(t, s)

	w := s.do(http.MethodPost, "/api/cart/items?category=breakfast", token, `{"dish_id": 1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/chat?category=breakfast", token, `{"message": "low carb please"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPut, "/api/language?category=breakfast", token, `{"language": "zh"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/view", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"item_count":0`)
	assert.Contains(t, w.Body.String(), `"language":"en"`)
	assert.NotContains(t, w.Body.String(), `"recommended":true`)

	w = s.do(http.MethodGet, "/api/chat", token, "")
	assert.Contains(t, w.Body.String(), `"transcript":[]`)
}

func TestHugeDeltaIsCapped(t *testing.T) {
	s := newTestServer(t, &scriptedCompleter{})
	token := newSession(t, s)

	s.do(http.MethodPost, "/api/cart/items", token, `{"dish_id": 1}`)
	w := s.do(http.MethodPatch, "/api/cart/items/1", token, `{"delta": 9223372036854775807}`)
	require.Equal(t, http.StatusOK, w.Code)
	v := decodeView(t, w)
	assert.Equal(t, cart.MaxQuantity, v.View.Cart.ItemCount)
}

func TestCartsArePerSession(t *testing.T) {
	s := newTestServer(t, &scriptedCompleter{})
	a := newSession(t, s)
	b := newSession(t, s)

	s.do(http.MethodPost, "/api/cart/items", a, `{"dish_id": 5}`)

	w := s.do(http.MethodGet, "/api/view", b, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"item_count":0`)
}

func TestCheckoutConfirm(t *testing.T) {
	s := newTestServer(t, &scriptedCompleter{})
	token := newSession(t, s)

	w := s.do(http.MethodPost, "/api/checkout/confirm", token, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	s.do(http.MethodPost, "/api/cart/items", token, `{"dish_id": 12}`)
	s.do(http.MethodPost, "/api/cart/items", token, `{"dish_id": 13}`)

	w = s.do(http.MethodGet, "/api/checkout", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":"$8.49"`)

	w = s.do(http.MethodPost, "/api/checkout/confirm", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	v := decodeView(t, w)
	assert.Equal(t, "Order confirmed! Total: $8.49\n\nThank you for your order!", v.Message)
	assert.Equal(t, 0, v.View.Cart.ItemCount)

	w = s.do(http.MethodGet, "/api/orders", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)
}

func TestChatRecommendations(t *testing.T) {
	s := newTestServer(t, &scriptedCompleter{reply: "Here are some lighter options. [EXTRACT: preferences:low-carb]"})
	token := newSession(t, s)

	w := s.do(http.MethodPost, "/api/chat", token, `{"message": "   "}`)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(http.MethodPost, "/api/chat", token, `{"message": "I'm cutting carbs"}`)
	require.Equal(t, http.StatusOK, w.Code)
	v := decodeView(t, w)
	require.NotNil(t, v.Result)
	assert.Equal(t, "reply", v.Result.Kind)
	assert.Equal(t, "Here are some lighter options.", v.Result.Reply)
	assert.Equal(t, []int{1, 5}, v.Result.Recommendations)

	recommended := map[int]bool{}
	for _, c := range v.View.Cards {
		if c.Recommended {
			recommended[c.ID] = true
			assert.Equal(t, "✓ Recommended for you", c.Badge)
		}
	}
	assert.Equal(t, map[int]bool{1: true, 5: true}, recommended)

	w = s.do(http.MethodPost, "/api/chat/clear", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	v = decodeView(t, w)
	for _, c := range v.View.Cards {
		assert.False(t, c.Recommended)
	}
}

func TestChatInFlightConflict(t *testing.T) {
	fc := &scriptedCompleter{reply: "ok", block: make(chan struct{})}
	s := newTestServer(t, fc)
	token := newSession(t, s)

	done := make(chan int)
	go func() {
		done <- s.do(http.MethodPost, "/api/chat", token, `{"message": "hello"}`).Code
	}()

	require.Eventually(t, func() bool {
		body := s.do(http.MethodGet, "/api/chat", token, "").Body.String()
		return strings.Contains(body, `"in_flight":true`)
	}, time.Second, 5*time.Millisecond)

	w := s.do(http.MethodPost, "/api/chat", token, `{"message": "again"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	close(fc.block)
	assert.Equal(t, http.StatusOK, <-done)
}

func TestLanguage(t *testing.T) {
	s := newTestServer(t, &scriptedCompleter{})
	token := newSession(t, s)

	w := s.do(http.MethodPut, "/api/language", token, `{"language": "fr"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPut, "/api/language", token, `{"language": "zhCN"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Set-Cookie"), "language=zhCN")
	assert.Contains(t, w.Body.String(), "您的购物车是空的")
}

func TestContextAndMetrics(t *testing.T) {
	s := newTestServer(t, &scriptedCompleter{})
	token := newSession(t, s)

	w := s.do(http.MethodGet, "/api/context", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"special_date":"Christmas"`)

	w = s.do(http.MethodGet, "/api/metrics", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	assert.Contains(t, m, "uptime_seconds")
	assert.Contains(t, m, "active_sessions")
}

func TestChatSocket(t *testing.T) {
	s := newTestServer(t, &scriptedCompleter{reply: "Soft foods might help. [EXTRACT: conditions:sore-throat]"})
	token := newSession(t, s)

	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/chat?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"message": "my throat hurts"}`)))
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var res dialogue.TurnResult
	require.NoError(t, conn.ReadJSON(&res))
	assert.Equal(t, dialogue.TurnReply, res.Kind)
	assert.Equal(t, []int{4, 6, 12, 13}, res.Recommendations)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`not json`)))
	var frame map[string]string
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, "Invalid message", frame["error"])
}
