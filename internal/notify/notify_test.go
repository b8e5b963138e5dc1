package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Asus/lattkia_store/internal/broker"
	"github.com/Asus/lattkia_store/internal/entity"
	"github.com/Asus/lattkia_store/internal/service"
	"github.com/Asus/lattkia_store/internal/state"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testToken  = "123456:ABC-def_ghi"
	testChatID = "-100200300"
)

// fakeBotAPI записывает sendMessage запросы и отвечает как Bot API
type fakeBotAPI struct {
	mu       sync.Mutex
	paths    []string
	messages []sendMessageRequest
	fail     bool
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	f.mu.Lock()
	f.paths = append(f.paths, r.URL.Path)
	f.messages = append(f.messages, req)
	fail := f.fail
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if fail {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":401,"description":"Unauthorized"}`))
		return
	}
	_, _ = w.Write([]byte(`{"ok":true,"result":{}}`))
}

func (f *fakeBotAPI) setFail(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = v
}

func (f *fakeBotAPI) sent() []sendMessageRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sendMessageRequest{}, f.messages...)
}

func newTestNotifier(t *testing.T, token, chatID string) (*Notifier, *fakeBotAPI) {
	t.Helper()
	api := &fakeBotAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	store, err := state.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return NewNotifier(NewClient(srv.URL, time.Second), store, NewFeed(), token, chatID), api
}

func TestClientSendMessage(t *testing.T) {
	api := &fakeBotAPI{}
	srv := httptest.NewServer(api)
	defer srv.Close()

	c := NewClient(srv.URL+"/", time.Second)
	require.NoError(t, c.SendMessage(context.Background(), testToken, testChatID, "hello"))

	api.mu.Lock()
	require.Len(t, api.paths, 1)
	assert.Equal(t, "/bot"+testToken+"/sendMessage", api.paths[0])
	api.mu.Unlock()
	assert.Equal(t, sendMessageRequest{ChatID: testChatID, Text: "hello"}, api.sent()[0])

	api.setFail(true)
	err := c.SendMessage(context.Background(), testToken, testChatID, "hello")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.Code)
	assert.Equal(t, "Unauthorized", apiErr.Description)
}

func TestSettingsValidation(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(*Settings)
		wantErr string
	}{
		{name: "valid", mutate: func(*Settings) {}},
		{name: "missing token", mutate: func(s *Settings) { s.BotToken = "" }, wantErr: "BotToken is required"},
		{name: "malformed token", mutate: func(s *Settings) { s.BotToken = "not a token" }, wantErr: "invalid bot token"},
		{name: "malformed chat", mutate: func(s *Settings) { s.ChatID = "@channel" }, wantErr: "invalid chat id"},
		{name: "empty template", mutate: func(s *Settings) { s.Templates.Welcome = "" }, wantErr: "Welcome is required"},
		{name: "long template", mutate: func(s *Settings) { s.Templates.OrderShipped = strings.Repeat("x", 1001) }, wantErr: "OrderShipped is too long"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := DefaultSettings()
			s.BotToken = testToken
			s.ChatID = testChatID
			tc.mutate(&s)

			err := s.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidateMessage(t *testing.T) {
	assert.Error(t, ValidateMessage("   "))
	assert.Error(t, ValidateMessage(strings.Repeat("я", 1001)))
	assert.NoError(t, ValidateMessage(strings.Repeat("я", 1000)))
}

func TestSaveSettingsPersists(t *testing.T) {
	n, _ := newTestNotifier(t, "", "")
	ctx := context.Background()

	s, err := n.Settings(ctx)
	require.NoError(t, err)
	assert.False(t, s.Configured())
	assert.Equal(t, "Welcome to LATTKIA store!", s.Templates.Welcome)

	s.BotToken = " " + testToken + " "
	s.ChatID = testChatID
	s.Toggles.LowStock = false
	_, err = n.SaveSettings(ctx, s)
	require.NoError(t, err)

	got, err := n.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, testToken, got.BotToken)
	assert.False(t, got.Toggles.LowStock)

	s.ChatID = "nope"
	_, err = n.SaveSettings(ctx, s)
	assert.Equal(t, service.CodeInvalidArgument, service.CodeOf(err))
}

func TestTestConnection(t *testing.T) {
	n, api := newTestNotifier(t, "", "")
	ctx := context.Background()

	err := n.TestConnection(ctx)
	assert.Equal(t, service.CodeFailedPrecondition, service.CodeOf(err))

	n, api = newTestNotifier(t, testToken, testChatID)
	require.NoError(t, n.TestConnection(ctx))
	require.Len(t, api.sent(), 1)
	assert.Equal(t, TestMessage, api.sent()[0].Text)
	assert.Equal(t, LevelSuccess, n.Feed().List()[0].Type)

	api.setFail(true)
	assert.Error(t, n.TestConnection(ctx))
	assert.Equal(t, LevelError, n.Feed().List()[0].Type)
}

func TestSend(t *testing.T) {
	n, api := newTestNotifier(t, testToken, testChatID)
	ctx := context.Background()

	err := n.Send(ctx, "")
	assert.Equal(t, service.CodeInvalidArgument, service.CodeOf(err))

	require.NoError(t, n.Send(ctx, "Sale starts tomorrow"))
	require.Len(t, api.sent(), 1)
	assert.Equal(t, testChatID, api.sent()[0].ChatID)
}

func TestHandleEvents(t *testing.T) {
	n, api := newTestNotifier(t, testToken, testChatID)
	ctx := context.Background()
	eta := time.Date(2024, 6, 4, 10, 0, 0, 0, time.UTC)

	order := &entity.Order{
		ID:     "order-42",
		Status: entity.StatusPending,
		Items:  []entity.OrderItem{{ProductID: "p1", Quantity: 15}, {ProductID: "p2", Quantity: 1}},
		Total:  decimal.RequireFromString("1369.2449"),
	}
	require.NoError(t, n.Handle(ctx, broker.Event{Type: broker.OrderPlaced, Order: order}))

	shipped := *order
	shipped.Status = entity.StatusShipped
	shipped.ExpectedDeliveryTime = &eta
	require.NoError(t, n.Handle(ctx, broker.Event{Type: broker.OrderStatusChanged, Order: &shipped, PreviousStatus: entity.StatusProcessing}))

	require.NoError(t, n.Handle(ctx, broker.Event{Type: broker.ProductLowStock, Product: &entity.Product{Name: "Wireless Earbuds Pro", Stock: 4}}))
	require.NoError(t, n.Handle(ctx, broker.Event{Type: broker.UserRegistered, User: &entity.User{Name: "Sara", Email: "sara@example.com"}}))

	sent := api.sent()
	require.Len(t, sent, 4)
	assert.Contains(t, sent[0].Text, "Your order has been received!")
	assert.Contains(t, sent[0].Text, "order-42: 2 item(s), total $1,369.24")
	assert.Contains(t, sent[1].Text, "Your order has been shipped!")
	assert.Contains(t, sent[1].Text, "expected 2024-06-04")
	assert.Contains(t, sent[2].Text, "Wireless Earbuds Pro has 4 unit(s) left")
	assert.Contains(t, sent[3].Text, "Welcome to LATTKIA store!")

	feed := n.Feed().List()
	require.Len(t, feed, 4)
	assert.Equal(t, LevelInfo, feed[0].Type)
	assert.Equal(t, LevelWarning, feed[1].Type)
	assert.Equal(t, LevelSuccess, feed[3].Type)

	assert.Error(t, n.Handle(ctx, broker.Event{Type: "order.exploded"}))
	assert.Error(t, n.Handle(ctx, broker.Event{Type: broker.OrderPlaced}))
}

func TestHandleRespectsToggles(t *testing.T) {
	n, api := newTestNotifier(t, testToken, testChatID)
	ctx := context.Background()

	s, err := n.Settings(ctx)
	require.NoError(t, err)
	s.Toggles.NewUsers = false
	_, err = n.SaveSettings(ctx, s)
	require.NoError(t, err)

	require.NoError(t, n.Handle(ctx, broker.Event{Type: broker.UserRegistered, User: &entity.User{Name: "Quiet"}}))
	assert.Empty(t, api.sent())
	assert.Len(t, n.Feed().List(), 1, "feed still records the event")
}

func TestHandleWithoutBot(t *testing.T) {
	n, api := newTestNotifier(t, "", "")

	err := n.Handle(context.Background(), broker.Event{Type: broker.ProductLowStock, Product: &entity.Product{Name: "Case", Stock: 1}})
	require.NoError(t, err)
	assert.Empty(t, api.sent())
	assert.Len(t, n.Feed().List(), 1)
}

func TestHandleDeliveryFailure(t *testing.T) {
	n, api := newTestNotifier(t, testToken, testChatID)
	api.setFail(true)

	err := n.Handle(context.Background(), broker.Event{Type: broker.UserRegistered, User: &entity.User{Name: "Sara"}})
	require.Error(t, err)
	feed := n.Feed().List()
	require.Len(t, feed, 2)
	assert.Equal(t, LevelError, feed[0].Type)
}

func TestFeed(t *testing.T) {
	f := NewFeed()
	assert.NotNil(t, f.List())

	first := f.Add(LevelInfo, "first")
	f.Add(LevelInfo, "second")
	assert.Equal(t, "second", f.List()[0].Message)

	assert.True(t, f.Remove(first.ID))
	assert.False(t, f.Remove(first.ID))
	assert.Len(t, f.List(), 1)

	for i := 0; i < feedLimit+10; i++ {
		f.Add(LevelInfo, "spam")
	}
	assert.Len(t, f.List(), feedLimit)

	f.Clear()
	assert.Empty(t, f.List())
}
