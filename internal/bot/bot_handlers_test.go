package bot

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/eug3n3js/ShiftBot/internal/config"
	"github.com/eug3n3js/ShiftBot/internal/storage"
)

// --- mocks ---

type sentMsg struct {
	ChatID int64
	Text   string
}

type mockAPI struct {
	mu   sync.Mutex
	sent []sentMsg
}

func (m *mockAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		m.mu.Lock()
		m.sent = append(m.sent, sentMsg{ChatID: msg.ChatID, Text: msg.Text})
		m.mu.Unlock()
	}
	return tgbotapi.Message{}, nil
}

func (m *mockAPI) GetUpdatesChan(_ tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return make(tgbotapi.UpdatesChannel)
}

func (m *mockAPI) StopReceivingUpdates() {}

func (m *mockAPI) lastText() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return ""
	}
	return m.sent[len(m.sent)-1].Text
}

func (m *mockAPI) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
}

// --- helpers ---

func newTestBot(t *testing.T, adminIDs ...int64) (*Bot, *mockAPI, *storage.SQLite) {
	t.Helper()
	store, err := storage.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	api := &mockAPI{}
	b := &Bot{
		api:   api,
		store: store,
		cfg: &config.Config{
			BaseURL:  "https://shifts.example.com/positions",
			AdminIDs: adminIDs,
		},
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return b, api, store
}

func makeMsg(tgID int64, cmd, args string) *tgbotapi.Message {
	text := "/" + cmd
	if args != "" {
		text += " " + args
	}
	return &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: tgID},
		From: &tgbotapi.User{ID: tgID},
		Text: text,
		Entities: []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: len("/" + cmd)},
		},
	}
}

func requireContains(t *testing.T, got, want string) {
	t.Helper()
	if !strings.Contains(got, want) {
		t.Errorf("reply missing %q, got:\n%s", want, got)
	}
}

// --- handler tests ---

func TestHandleStartRegistersUser(t *testing.T) {
	ctx := context.Background()
	b, api, store := newTestBot(t)

	b.handleCommand(ctx, makeMsg(42, "start", ""))
	requireContains(t, api.lastText(), "Welcome to ShiftBot")

	user, err := store.GetUserByTgID(ctx, 42)
	if err != nil {
		t.Fatalf("user not registered: %v", err)
	}
	filters, err := store.GetUserFilters(ctx, user.ID)
	if err != nil {
		t.Fatalf("get filters: %v", err)
	}
	if len(filters) != 2 {
		t.Errorf("expected 2 filters for new user, got %d", len(filters))
	}

	// Second /start must not create a duplicate.
	b.handleCommand(ctx, makeMsg(42, "start", ""))
	users, err := store.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 1 {
		t.Errorf("expected 1 user, got %d", len(users))
	}
}

func TestHandleStartInstantAdmin(t *testing.T) {
	ctx := context.Background()
	b, _, store := newTestBot(t, 42)

	b.handleCommand(ctx, makeMsg(42, "start", ""))

	user, err := store.GetUserByTgID(ctx, 42)
	if err != nil {
		t.Fatalf("user not registered: %v", err)
	}
	if !user.IsAdmin {
		t.Error("configured admin ID did not get the admin flag")
	}
}

func TestHandleSub(t *testing.T) {
	ctx := context.Background()
	b, api, store := newTestBot(t)

	b.handleCommand(ctx, makeMsg(42, "sub", ""))
	requireContains(t, api.lastText(), "inactive")

	user, _ := store.GetUserByTgID(ctx, 42)
	future := time.Now().UTC().Add(26 * time.Hour)
	if err := store.SetAccessEnds(ctx, user.ID, &future); err != nil {
		t.Fatalf("set access: %v", err)
	}

	api.reset()
	b.handleCommand(ctx, makeMsg(42, "sub", ""))
	requireContains(t, api.lastText(), "active")
	requireContains(t, api.lastText(), "1 day")
}

func TestFilterCommands(t *testing.T) {
	ctx := context.Background()
	b, api, _ := newTestBot(t)

	b.handleCommand(ctx, makeMsg(42, "fadd", "allow location Praha"))
	requireContains(t, api.lastText(), `"Praha"`)

	api.reset()
	b.handleCommand(ctx, makeMsg(42, "filters", ""))
	requireContains(t, api.lastText(), "Allow list (OR)")
	requireContains(t, api.lastText(), "Praha")
	requireContains(t, api.lastText(), "Deny list (OR)")

	api.reset()
	b.handleCommand(ctx, makeMsg(42, "flogic", "allow and"))
	requireContains(t, api.lastText(), "AND")

	api.reset()
	b.handleCommand(ctx, makeMsg(42, "flonger", "allow 4"))
	requireContains(t, api.lastText(), "4 hours")

	api.reset()
	b.handleCommand(ctx, makeMsg(42, "frm", "allow location Praha"))
	requireContains(t, api.lastText(), "removed")

	api.reset()
	b.handleCommand(ctx, makeMsg(42, "filters", ""))
	if strings.Contains(api.lastText(), "Praha") {
		t.Errorf("removed value still listed:\n%s", api.lastText())
	}
	requireContains(t, api.lastText(), "Longer than: 4 hours")

	api.reset()
	b.handleCommand(ctx, makeMsg(42, "fadd", "allow"))
	requireContains(t, api.lastText(), "usage")
}

func TestAdminCommandsRequireAdmin(t *testing.T) {
	ctx := context.Background()
	b, api, _ := newTestBot(t)

	for _, cmd := range []string{"activate", "deactivate", "grant", "revoke", "users", "broadcast"} {
		api.reset()
		b.handleCommand(ctx, makeMsg(42, cmd, "1 1"))
		requireContains(t, api.lastText(), "admins only")
	}
}

func TestHandleActivate(t *testing.T) {
	ctx := context.Background()
	b, api, store := newTestBot(t, 1)

	// Register the target user, then activate twice: extensions stack.
	b.handleCommand(ctx, makeMsg(42, "start", ""))
	b.handleCommand(ctx, makeMsg(1, "activate", "42 24"))
	requireContains(t, api.lastText(), "active until")

	b.handleCommand(ctx, makeMsg(1, "activate", "42 24"))
	user, _ := store.GetUserByTgID(ctx, 42)
	left := time.Until(*user.AccessEnds)
	if left < 47*time.Hour || left > 49*time.Hour {
		t.Errorf("stacked access ends in %s, want about 48h", left)
	}

	api.reset()
	b.handleCommand(ctx, makeMsg(1, "deactivate", "42"))
	requireContains(t, api.lastText(), "deactivated")
	user, _ = store.GetUserByTgID(ctx, 42)
	if user.AccessEnds != nil {
		t.Errorf("access_ends = %v, want nil", user.AccessEnds)
	}

	api.reset()
	b.handleCommand(ctx, makeMsg(1, "activate", "99 24"))
	requireContains(t, api.lastText(), "not registered")
}

func TestHandleGrantRevoke(t *testing.T) {
	ctx := context.Background()
	b, api, store := newTestBot(t, 1)

	b.handleCommand(ctx, makeMsg(42, "start", ""))
	b.handleCommand(ctx, makeMsg(1, "grant", "42"))
	requireContains(t, api.lastText(), "now an admin")

	user, _ := store.GetUserByTgID(ctx, 42)
	if !user.IsAdmin {
		t.Error("grant did not set the admin flag")
	}

	b.handleCommand(ctx, makeMsg(1, "revoke", "42"))
	user, _ = store.GetUserByTgID(ctx, 42)
	if user.IsAdmin {
		t.Error("revoke did not clear the admin flag")
	}
}

func TestHandleUsersAndBroadcast(t *testing.T) {
	ctx := context.Background()
	b, api, _ := newTestBot(t, 1)

	b.handleCommand(ctx, makeMsg(42, "start", ""))
	b.handleCommand(ctx, makeMsg(43, "start", ""))

	api.reset()
	b.handleCommand(ctx, makeMsg(1, "users", ""))
	requireContains(t, api.lastText(), "Users (3)")

	api.reset()
	b.handleCommand(ctx, makeMsg(1, "broadcast", "maintenance tonight"))
	requireContains(t, api.lastText(), "sent to 2 user(s)")

	var delivered int
	for _, m := range api.sent {
		if m.Text == "maintenance tonight" {
			delivered++
		}
	}
	if delivered != 2 {
		t.Errorf("broadcast delivered to %d users, want 2", delivered)
	}
}

func TestHandleUnknownCommand(t *testing.T) {
	ctx := context.Background()
	b, api, _ := newTestBot(t)
	b.handleCommand(ctx, makeMsg(42, "frobnicate", ""))
	requireContains(t, api.lastText(), "Unknown command")
}

func TestMuteCallback(t *testing.T) {
	ctx := context.Background()
	b, api, store := newTestBot(t)

	b.handleCommand(ctx, makeMsg(42, "start", ""))
	user, _ := store.GetUserByTgID(ctx, 42)

	cb := &tgbotapi.CallbackQuery{
		ID:      "cb1",
		Data:    "mute:100",
		From:    &tgbotapi.User{ID: 42},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 42}},
	}
	b.handleCallback(ctx, cb)
	requireContains(t, api.lastText(), "Muted")

	mutes, err := store.GetBatchUserMutes(ctx, []int64{user.ID})
	if err != nil {
		t.Fatalf("batch mutes: %v", err)
	}
	if len(mutes[user.ID]) != 1 || mutes[user.ID][0] != 100 {
		t.Errorf("mutes = %+v, want link 100", mutes[user.ID])
	}

	// Muting again is a no-op, not an error.
	b.handleCallback(ctx, cb)
	mutes, _ = store.GetBatchUserMutes(ctx, []int64{user.ID})
	if len(mutes[user.ID]) != 1 {
		t.Errorf("duplicate mute created: %+v", mutes[user.ID])
	}
}

func TestCallbackBadData(t *testing.T) {
	ctx := context.Background()
	b, api, _ := newTestBot(t)

	for _, data := range []string{"nocolon", "mute:abc"} {
		api.reset()
		cb := &tgbotapi.CallbackQuery{
			ID:      "cb",
			Data:    data,
			From:    &tgbotapi.User{ID: 42},
			Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 42}},
		}
		b.handleCallback(ctx, cb)
		if len(api.sent) != 0 {
			t.Errorf("data %q produced replies: %+v", data, api.sent)
		}
	}
}

func TestNotifyShift(t *testing.T) {
	b, api, _ := newTestBot(t)

	b.NotifyShift(42, sampleShift())
	requireContains(t, api.lastText(), "Festival buildup")
	requireContains(t, api.lastText(), "https://shifts.example.com/positions/100")
	if api.sent[0].ChatID != 42 {
		t.Errorf("sent to chat %d, want 42", api.sent[0].ChatID)
	}
}
