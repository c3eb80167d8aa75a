package punch

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/foxseedlab/bateponto/internal/config"
	"github.com/foxseedlab/bateponto/internal/discord"
	"github.com/foxseedlab/bateponto/internal/notifier"
	"github.com/foxseedlab/bateponto/internal/repository"
	"github.com/foxseedlab/bateponto/internal/timeclock"
)

const testGuildID = "guild-1"

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type mockStore struct {
	mu      sync.Mutex
	records map[string]*repository.UserRecord
	order   []string
	saveErr error
}

func newMockStore() *mockStore {
	return &mockStore{records: make(map[string]*repository.UserRecord)}
}

func (m *mockStore) LoadUserRecord(_ context.Context, userID string) (*repository.UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[userID].Clone(), nil
}

func (m *mockStore) SaveUserRecord(_ context.Context, userID string, record *repository.UserRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	if _, ok := m.records[userID]; !ok {
		m.order = append(m.order, userID)
	}
	m.records[userID] = record.Clone()
	return nil
}

func (m *mockStore) ListUserRecords(_ context.Context) ([]repository.UserRecordEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]repository.UserRecordEntry, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, repository.UserRecordEntry{UserID: id, Record: m.records[id].Clone()})
	}
	return out, nil
}

func (m *mockStore) Close() error { return nil }

type mockDiscordClient struct {
	names     map[string]string
	onResolve func(userID string)
}

func (m *mockDiscordClient) Connect(_ context.Context) error                               { return nil }
func (m *mockDiscordClient) Close() error                                                  { return nil }
func (m *mockDiscordClient) RegisterButtonHandler(_ func(discord.ButtonEvent))             {}
func (m *mockDiscordClient) RegisterSlashCommandHandler(_ func(discord.SlashCommandEvent)) {}
func (m *mockDiscordClient) UpsertGuildSlashCommands(_ string, _ []discord.SlashCommandDefinition) error {
	return nil
}
func (m *mockDiscordClient) UpdatePresence(_ discord.Presence) error { return nil }
func (m *mockDiscordClient) ResolveUserName(_ context.Context, _, userID string) (string, bool) {
	if m.onResolve != nil {
		m.onResolve(userID)
	}
	name, ok := m.names[userID]
	return name, ok
}
func (m *mockDiscordClient) Run() error { return nil }

type mockNotifier struct {
	mu     sync.Mutex
	events []notifier.ShiftCompletedEvent
	err    error
}

func (m *mockNotifier) NotifyShiftCompleted(_ context.Context, event notifier.ShiftCompletedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return m.err
}

type harness struct {
	handler  *Handler
	store    *mockStore
	notifier *mockNotifier
	discord  *mockDiscordClient
	now      time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{store: newMockStore(), notifier: &mockNotifier{}, now: t0}
	cfg := &config.Config{DiscordGuildID: testGuildID, ReportTimezone: "UTC"}
	h.discord = &mockDiscordClient{names: map[string]string{"111": "Ana", "222": "Bruno"}}
	h.handler = NewHandler(cfg, timeclock.NewEngine(h.store), h.discord, h.notifier)
	h.handler.now = func() time.Time { return h.now }
	return h
}

func (h *harness) press(t *testing.T, userID, customID string) *discord.InteractionResponse {
	t.Helper()
	var got *discord.InteractionResponse
	h.handler.HandleButton(discord.ButtonEvent{
		GuildID:  testGuildID,
		CustomID: customID,
		UserID:   userID,
		Respond: func(resp discord.InteractionResponse) error {
			got = &resp
			return nil
		},
	})
	return got
}

func (h *harness) command(t *testing.T, name string, admin bool, options map[string]string) *discord.InteractionResponse {
	t.Helper()
	var got *discord.InteractionResponse
	h.handler.HandleSlashCommand(discord.SlashCommandEvent{
		GuildID:     testGuildID,
		CommandName: name,
		UserID:      "admin",
		IsAdmin:     admin,
		Options:     options,
		Respond: func(resp discord.InteractionResponse) error {
			got = &resp
			return nil
		},
	})
	return got
}

func (h *harness) workShift(t *testing.T, userID string, start time.Time, minutes int) {
	t.Helper()
	h.now = start
	if resp := h.press(t, userID, buttonStart); resp.Content != messageStarted {
		t.Fatalf("unexpected start reply: %+v", resp)
	}
	h.now = start.Add(time.Duration(minutes) * time.Minute)
	if resp := h.press(t, userID, buttonEnd); len(resp.Embeds) != 1 {
		t.Fatalf("unexpected end reply: %+v", resp)
	}
}

func TestHandleButton_FullShift(t *testing.T) {
	h := newHarness(t)

	resp := h.press(t, "111", buttonStart)
	if resp == nil || resp.Content != messageStarted || !resp.Ephemeral {
		t.Fatalf("unexpected start reply: %+v", resp)
	}

	h.now = t0.Add(30 * time.Minute)
	if resp := h.press(t, "111", buttonPause); resp.Content != messagePaused {
		t.Fatalf("unexpected pause reply: %+v", resp)
	}
	h.now = t0.Add(60 * time.Minute)
	if resp := h.press(t, "111", buttonPause); resp.Content != messageResumed {
		t.Fatalf("unexpected resume reply: %+v", resp)
	}

	h.now = t0.Add(120 * time.Minute)
	resp = h.press(t, "111", buttonEnd)
	if !resp.Ephemeral || len(resp.Embeds) != 1 {
		t.Fatalf("unexpected end reply: %+v", resp)
	}
	embed := resp.Embeds[0]
	if embed.Title != endedTitle {
		t.Fatalf("unexpected title: %q", embed.Title)
	}
	want := []string{"1h 30m", "1", "1h 30m"}
	for i, f := range embed.Fields {
		if f.Value != want[i] {
			t.Fatalf("field %d (%s): got %q, want %q", i, f.Name, f.Value, want[i])
		}
	}

	h.handler.Wait()
	if len(h.notifier.events) != 1 {
		t.Fatalf("expected one notification, got %d", len(h.notifier.events))
	}
	ev := h.notifier.events[0]
	if ev.UserID != "111" || ev.DurationHours != 1.5 || ev.PauseCount != 1 || !ev.EndedAt.Equal(h.now) {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestHandleButton_RejectedTransitions(t *testing.T) {
	h := newHarness(t)

	if resp := h.press(t, "111", buttonPause); resp.Content != messageNoActive {
		t.Fatalf("pause without shift: %+v", resp)
	}
	if resp := h.press(t, "111", buttonEnd); resp.Content != messageNoActive {
		t.Fatalf("end without shift: %+v", resp)
	}
	h.press(t, "111", buttonStart)
	if resp := h.press(t, "111", buttonStart); resp.Content != messageAlreadyActive {
		t.Fatalf("second start: %+v", resp)
	}
	h.handler.Wait()
	if len(h.notifier.events) != 0 {
		t.Fatalf("rejected actions must not notify, got %d", len(h.notifier.events))
	}
}

func TestHandleButton_StorageFailure(t *testing.T) {
	h := newHarness(t)
	h.store.saveErr = errors.New("disk full")

	if resp := h.press(t, "111", buttonStart); resp.Content != messageStorageFailed {
		t.Fatalf("unexpected reply: %+v", resp)
	}
}

func TestHandleButton_NotificationFailureDoesNotAffectReply(t *testing.T) {
	h := newHarness(t)
	h.notifier.err = errors.New("broker down")

	h.workShift(t, "111", t0, 60)
	h.handler.Wait()
	rec, _ := h.store.LoadUserRecord(context.Background(), "111")
	if rec.TotalHours != 1 {
		t.Fatalf("expected the shift to be recorded, got %+v", rec)
	}
}

func TestHandleButton_Status(t *testing.T) {
	h := newHarness(t)

	resp := h.press(t, "111", buttonStatus)
	if len(resp.Embeds) != 1 || resp.Embeds[0].Description != statusIdle {
		t.Fatalf("unexpected idle status: %+v", resp)
	}

	h.press(t, "111", buttonStart)
	h.now = t0.Add(45 * time.Minute)
	h.press(t, "111", buttonPause)
	h.now = t0.Add(60 * time.Minute)
	resp = h.press(t, "111", buttonStatus)
	fields := resp.Embeds[0].Fields
	if fields[0].Value != statePaused {
		t.Fatalf("expected paused state, got %q", fields[0].Value)
	}
	if fields[1].Value != "02/03/2026 09:00" {
		t.Fatalf("unexpected start: %q", fields[1].Value)
	}
	if fields[2].Value != "0h 45m" {
		t.Fatalf("expected 45 worked minutes, got %q", fields[2].Value)
	}
}

func TestHandleButton_IgnoresForeignButtonsAndGuilds(t *testing.T) {
	h := newHarness(t)

	if resp := h.press(t, "111", "other_button"); resp != nil {
		t.Fatalf("expected no reply for foreign button, got %+v", resp)
	}
	if resp := h.press(t, "111", "bateponto_desconhecido"); resp.Content != messageUnknownButton {
		t.Fatalf("unexpected reply: %+v", resp)
	}

	var got discord.InteractionResponse
	h.handler.HandleButton(discord.ButtonEvent{
		GuildID:  "guild-2",
		CustomID: buttonStart,
		UserID:   "111",
		Respond: func(resp discord.InteractionResponse) error {
			got = resp
			return nil
		},
	})
	if got.Content != messageWrongGuild {
		t.Fatalf("unexpected reply: %+v", got)
	}
	if rec, _ := h.store.LoadUserRecord(context.Background(), "111"); rec != nil {
		t.Fatalf("foreign guild must not create a record, got %+v", rec)
	}
}

func TestHandleSlashCommand_Panel(t *testing.T) {
	h := newHarness(t)

	resp := h.command(t, commandPanel, false, nil)
	if resp.Ephemeral {
		t.Fatal("panel must be public")
	}
	if len(resp.Buttons) != 4 || resp.Buttons[0].CustomID != buttonStart || resp.Buttons[3].CustomID != buttonStatus {
		t.Fatalf("unexpected buttons: %+v", resp.Buttons)
	}
	if resp.Embeds[0].Title != panelTitle || resp.Embeds[0].Footer != panelFooter {
		t.Fatalf("unexpected embed: %+v", resp.Embeds[0])
	}
}

func TestHandleSlashCommand_ReportRequiresAdmin(t *testing.T) {
	h := newHarness(t)

	if resp := h.command(t, commandReport, false, map[string]string{optionUser: "111"}); resp.Content != messageAdminOnly {
		t.Fatalf("unexpected reply: %+v", resp)
	}
	if resp := h.command(t, commandRanking, false, nil); resp.Content != messageAdminOnly {
		t.Fatalf("unexpected reply: %+v", resp)
	}
	if resp := h.command(t, commandReport, true, map[string]string{}); resp.Content != messageReportUsage {
		t.Fatalf("unexpected reply: %+v", resp)
	}
}

func TestHandleSlashCommand_Report(t *testing.T) {
	h := newHarness(t)

	if resp := h.command(t, commandReport, true, map[string]string{optionUser: "111"}); resp.Content != messageNoRecords {
		t.Fatalf("unexpected reply for user without records: %+v", resp)
	}

	h.workShift(t, "111", t0, 90)
	h.workShift(t, "111", t0.Add(24*time.Hour), 60)
	h.now = t0.Add(48 * time.Hour)
	h.press(t, "111", buttonStart)

	resp := h.command(t, commandReport, true, map[string]string{optionUser: "111"})
	embed := resp.Embeds[0]
	if embed.Title != "📊 Relatório de Horas - Ana" {
		t.Fatalf("unexpected title: %q", embed.Title)
	}
	if embed.Fields[0].Value != "2h 30m" || embed.Fields[1].Value != "2" || embed.Fields[2].Value != yes {
		t.Fatalf("unexpected summary fields: %+v", embed.Fields[:3])
	}
	wantLines := "**1.** 03/03/2026 - 1h 0m (0 pausas)\n**2.** 02/03/2026 - 1h 30m (0 pausas)\n"
	if embed.Fields[3].Value != wantLines {
		t.Fatalf("unexpected recent sessions:\n%s", embed.Fields[3].Value)
	}
}

func TestHandleSlashCommand_Ranking(t *testing.T) {
	h := newHarness(t)

	if resp := h.command(t, commandRanking, true, nil); resp.Content != messageNoRanking {
		t.Fatalf("unexpected reply: %+v", resp)
	}

	h.workShift(t, "111", t0, 60)
	h.workShift(t, "222", t0, 120)
	h.workShift(t, "333", t0, 30)

	resp := h.command(t, commandRanking, true, nil)
	got := resp.Embeds[0].Description
	want := "🥇 **Bruno** - 2h 0m\n🥈 **Ana** - 1h 0m\n🥉 **Desconhecido** - 0h 30m\n"
	if got != want {
		t.Fatalf("unexpected ranking:\n%s", got)
	}
}

type blockingDispatcher struct {
	entered chan struct{}
	release chan struct{}
}

func (d *blockingDispatcher) Handle(_ context.Context, _ timeclock.Action) (timeclock.Result, error) {
	close(d.entered)
	<-d.release
	return timeclock.Result{Start: &timeclock.StartResult{}}, nil
}

func TestHandler_WaitCoversInFlightInteractions(t *testing.T) {
	d := &blockingDispatcher{entered: make(chan struct{}), release: make(chan struct{})}
	cfg := &config.Config{DiscordGuildID: testGuildID, ReportTimezone: "UTC"}
	handler := NewHandler(cfg, d, &mockDiscordClient{}, &mockNotifier{})

	go handler.HandleButton(discord.ButtonEvent{GuildID: testGuildID, CustomID: buttonStart, UserID: "111"})
	<-d.entered

	waited := make(chan struct{})
	go func() {
		handler.Wait()
		close(waited)
	}()
	select {
	case <-waited:
		t.Fatal("Wait returned while a button press was still being handled")
	case <-time.After(50 * time.Millisecond):
	}

	close(d.release)
	select {
	case <-waited:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after the button press finished")
	}
}

// deferredCommand runs a slash command whose event supports deferral and
// returns the calls in the order they happened.
func (h *harness) deferredCommand(t *testing.T, name string, options map[string]string) ([]string, *discord.InteractionResponse) {
	t.Helper()
	var calls []string
	var got *discord.InteractionResponse
	h.discord.onResolve = func(userID string) { calls = append(calls, "resolve:"+userID) }
	defer func() { h.discord.onResolve = nil }()
	h.handler.HandleSlashCommand(discord.SlashCommandEvent{
		GuildID:     testGuildID,
		CommandName: name,
		UserID:      "admin",
		IsAdmin:     true,
		Options:     options,
		Respond: func(resp discord.InteractionResponse) error {
			calls = append(calls, "respond")
			got = &resp
			return nil
		},
		Defer: func() error {
			calls = append(calls, "defer")
			return nil
		},
		Edit: func(resp discord.InteractionResponse) error {
			calls = append(calls, "edit")
			got = &resp
			return nil
		},
	})
	return calls, got
}

func TestHandleSlashCommand_DefersBeforeResolvingNames(t *testing.T) {
	h := newHarness(t)
	h.workShift(t, "111", t0, 60)
	h.workShift(t, "222", t0, 120)

	calls, resp := h.deferredCommand(t, commandRanking, nil)
	want := []string{"defer", "resolve:222", "resolve:111", "edit"}
	if !slices.Equal(calls, want) {
		t.Fatalf("unexpected ranking call order: %v", calls)
	}
	if resp.Embeds[0].Description != "🥇 **Bruno** - 2h 0m\n🥈 **Ana** - 1h 0m\n" {
		t.Fatalf("unexpected ranking: %q", resp.Embeds[0].Description)
	}

	calls, resp = h.deferredCommand(t, commandReport, map[string]string{optionUser: "111"})
	if !slices.Equal(calls, []string{"defer", "resolve:111", "edit"}) {
		t.Fatalf("unexpected report call order: %v", calls)
	}
	if resp.Embeds[0].Title != "📊 Relatório de Horas - Ana" {
		t.Fatalf("unexpected title: %q", resp.Embeds[0].Title)
	}
}

func TestHandleSlashCommand_FailuresAreNotDeferred(t *testing.T) {
	h := newHarness(t)

	calls, resp := h.deferredCommand(t, commandRanking, nil)
	if !slices.Equal(calls, []string{"respond"}) || resp.Content != messageNoRanking || !resp.Ephemeral {
		t.Fatalf("empty ranking: calls %v, reply %+v", calls, resp)
	}
	calls, resp = h.deferredCommand(t, commandReport, map[string]string{optionUser: "999"})
	if !slices.Equal(calls, []string{"respond"}) || resp.Content != messageNoRecords || !resp.Ephemeral {
		t.Fatalf("unknown user: calls %v, reply %+v", calls, resp)
	}
}

func TestSlashCommandDefinitions(t *testing.T) {
	defs := SlashCommandDefinitions()
	if len(defs) != 3 {
		t.Fatalf("expected 3 commands, got %d", len(defs))
	}
	if defs[0].AdminOnly || !defs[1].AdminOnly || !defs[2].AdminOnly {
		t.Fatalf("unexpected admin flags: %+v", defs)
	}
	if len(defs[1].Options) != 1 || defs[1].Options[0].Name != optionUser || !defs[1].Options[0].Required {
		t.Fatalf("unexpected report options: %+v", defs[1].Options)
	}
}
