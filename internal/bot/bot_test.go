package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"task-tracker/internal/model"
	"task-tracker/internal/repository"
	"task-tracker/internal/service"
)

type fakeAPI struct {
	mu   sync.Mutex
	sent []tgbotapi.MessageConfig
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, m)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	ch := make(chan tgbotapi.Update)
	close(ch)
	return ch
}

func (f *fakeAPI) StopReceivingUpdates() {}

func (f *fakeAPI) last(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		t.Fatalf("expected a message to be sent")
	}
	return f.sent[len(f.sent)-1]
}

func (f *fakeAPI) all() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var texts []string
	for _, m := range f.sent {
		texts = append(texts, m.Text)
	}
	return strings.Join(texts, "\n---\n")
}

func newTestBot(t *testing.T) (*Bot, *fakeAPI, *repository.SubscriberRepository) {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := repository.NewDB(":memory:", log)
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	store := repository.NewStore(db)
	tasks := service.NewTaskService(store, service.NewActivityRecorder(store.Activity, log), log)
	subscribers := repository.NewSubscriberRepository(db)
	api := &fakeAPI{}
	b := newBot(api, subscribers, tasks, service.NewCategoryService(store.Tasks), service.NewReminderService(tasks), time.UTC, log)
	return b, api, subscribers
}

func command(text string) *tgbotapi.Message {
	cmd, _, _ := strings.Cut(text, " ")
	return &tgbotapi.Message{
		Text:     text,
		From:     &tgbotapi.User{ID: 7, FirstName: "Ann"},
		Chat:     &tgbotapi.Chat{ID: 70, Type: "private"},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
	}
}

func text(s string) *tgbotapi.Message {
	return &tgbotapi.Message{
		Text: s,
		From: &tgbotapi.User{ID: 7, FirstName: "Ann"},
		Chat: &tgbotapi.Chat{ID: 70, Type: "private"},
	}
}

func mustHandle(t *testing.T, b *Bot, msg *tgbotapi.Message) {
	t.Helper()
	if err := b.handleMessage(context.Background(), msg); err != nil {
		t.Fatalf("handleMessage(%q) returned error: %v", msg.Text, err)
	}
}

func TestParseNewTask(t *testing.T) {
	t.Parallel()

	input, err := parseNewTask(" Buy milk | high | Shopping | 2025-11-30 | weekly ", time.UTC)
	if err != nil {
		t.Fatalf("parseNewTask returned error: %v", err)
	}
	if input.Description != "Buy milk" || input.Priority != model.PriorityHigh ||
		input.Category != "Shopping" || input.RecurrenceRule != model.RecurrenceWeekly {
		t.Fatalf("unexpected input: %+v", input)
	}
	want := time.Date(2025, 11, 30, 23, 59, 0, 0, time.UTC)
	if input.DueDate == nil || !input.DueDate.Equal(want) {
		t.Fatalf("expected due %v, got %v", want, input.DueDate)
	}
}

func TestParseNewTask_DescriptionOnly(t *testing.T) {
	t.Parallel()

	input, err := parseNewTask("call mom", time.UTC)
	if err != nil {
		t.Fatalf("parseNewTask returned error: %v", err)
	}
	if input.Description != "call mom" || input.Priority != "" || input.DueDate != nil {
		t.Fatalf("expected engine defaults to apply, got %+v", input)
	}
}

func TestParseNewTask_Errors(t *testing.T) {
	t.Parallel()

	cases := []string{"", " | high", "x | Work | Home"}
	for _, tc := range cases {
		if _, err := parseNewTask(tc, time.UTC); err == nil {
			t.Fatalf("expected error for %q", tc)
		}
	}
}

func TestParseEdit(t *testing.T) {
	t.Parallel()

	patch, err := parseEdit("| low | nodue", time.UTC)
	if err != nil {
		t.Fatalf("parseEdit returned error: %v", err)
	}
	if patch.Description.IsSet() {
		t.Fatalf("expected description untouched")
	}
	if p, ok := patch.Priority.Get(); !ok || p != model.PriorityLow {
		t.Fatalf("expected priority Low, got %v", p)
	}
	if due, ok := patch.DueDate.Get(); !ok || due != nil {
		t.Fatalf("expected due date cleared, got %v", due)
	}

	if _, err := parseEdit("|", time.UTC); err == nil {
		t.Fatalf("expected error for an empty edit")
	}
}

func TestParseDue(t *testing.T) {
	t.Parallel()

	got, ok := parseDue("2025-03-01 18:30", time.UTC)
	if !ok || !got.Equal(time.Date(2025, 3, 1, 18, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected due %v ok=%v", got, ok)
	}
	if _, ok := parseDue("tomorrow", time.UTC); ok {
		t.Fatalf("expected free text to be rejected")
	}
}

func TestSplitIDArg(t *testing.T) {
	t.Parallel()

	id, rest, err := splitIDArg(" 12  buy tickets ")
	if err != nil || id != 12 || rest != "buy tickets" {
		t.Fatalf("unexpected split: %d %q %v", id, rest, err)
	}
	if _, _, err := splitIDArg("abc text"); err == nil {
		t.Fatalf("expected error for non-numeric id")
	}
	if _, err := parseID("0"); err == nil {
		t.Fatalf("expected error for zero id")
	}
}

func TestShortTitle(t *testing.T) {
	t.Parallel()

	if got := shortTitle("hello world", 5); got != "Hell…" {
		t.Fatalf("expected %q, got %q", "Hell…", got)
	}
	if got := shortTitle("ok", 5); got != "Ok" {
		t.Fatalf("expected %q, got %q", "Ok", got)
	}
}

func TestUserMessage(t *testing.T) {
	t.Parallel()

	blocked := &service.BlockedError{Blockers: []string{"a", "<b>"}}
	if got := userMessage(blocked); !strings.Contains(got, "a, &lt;b&gt;") {
		t.Fatalf("expected escaped blocker list, got %q", got)
	}
	if got := userMessage(fmt.Errorf("%w: task 3", service.ErrNotFound)); got != "Task not found." {
		t.Fatalf("unexpected not-found text %q", got)
	}
	if got := userMessage(errors.New("database is locked")); strings.Contains(got, "locked") {
		t.Fatalf("expected storage details to stay hidden, got %q", got)
	}
}

func TestGroupByCategory(t *testing.T) {
	t.Parallel()

	items := []model.TaskListItem{
		{Task: model.Task{ID: 1, Category: "Work", Status: model.StatusPending}},
		{Task: model.Task{ID: 2, Category: "home", Status: model.StatusPending}},
		{Task: model.Task{ID: 3, Category: "work", Status: model.StatusPending}},
		{Task: model.Task{ID: 4, Category: "Home", Status: model.StatusCompleted}},
	}
	groups := groupByCategory(items)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Name != "home" || len(groups[0].Items) != 1 {
		t.Fatalf("unexpected first group %+v", groups[0])
	}
	if groups[1].Name != "Work" || len(groups[1].Items) != 2 || groups[1].Items[1].ID != 3 {
		t.Fatalf("unexpected second group %+v", groups[1])
	}
}

func TestBotCommandFlow(t *testing.T) {
	t.Parallel()
	b, api, subscribers := newTestBot(t)
	ctx := context.Background()

	mustHandle(t, b, command("/start"))
	subs, err := subscribers.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll returned error: %v", err)
	}
	if len(subs) != 1 || subs[0].ChatID != 70 {
		t.Fatalf("expected one subscriber for chat 70, got %+v", subs)
	}

	mustHandle(t, b, command("/new Buy milk | high | Shopping"))
	if got := api.last(t).Text; !strings.Contains(got, "Task saved") || !strings.Contains(got, "Buy milk") {
		t.Fatalf("expected saved task, got %q", got)
	}
	mustHandle(t, b, command("/new Go to store"))

	mustHandle(t, b, command("/block 1 2"))
	if got := api.last(t).Text; !strings.Contains(got, "waits for #2") {
		t.Fatalf("expected dependency confirmation, got %q", got)
	}

	mustHandle(t, b, command("/done 1"))
	if got := api.last(t).Text; !strings.Contains(got, "Still blocked by: Go to store") {
		t.Fatalf("expected blocked message, got %q", got)
	}

	mustHandle(t, b, command("/done 2"))
	mustHandle(t, b, command("/done 1"))
	if got := api.all(); !strings.Contains(got, "Task #1 completed. +50 XP") {
		t.Fatalf("expected completion with XP, got:\n%s", got)
	}

	mustHandle(t, b, command("/profile"))
	if got := api.last(t).Text; !strings.Contains(got, "80 XP") {
		t.Fatalf("expected 80 XP after High and Medium completions, got %q", got)
	}

	mustHandle(t, b, command("/done abc"))
	if got := api.last(t).Text; !strings.Contains(got, "positive number") {
		t.Fatalf("expected usage hint, got %q", got)
	}
}

func TestBotDeleteAndRestore(t *testing.T) {
	t.Parallel()
	b, api, _ := newTestBot(t)

	mustHandle(t, b, command("/new Draft"))
	mustHandle(t, b, command("/delete 1"))
	if got := api.last(t).Text; !strings.Contains(got, "moved to the bin") {
		t.Fatalf("expected soft delete, got %q", got)
	}
	mustHandle(t, b, command("/bin"))
	if got := api.last(t).Text; !strings.Contains(got, "Draft") {
		t.Fatalf("expected task in the bin, got %q", got)
	}
	mustHandle(t, b, command("/restore 1"))
	if got := api.last(t).Text; !strings.Contains(got, "restored") {
		t.Fatalf("expected restore, got %q", got)
	}
	mustHandle(t, b, command("/purge 1"))
	mustHandle(t, b, command("/show 1"))
	if got := api.last(t).Text; got != "Task not found." {
		t.Fatalf("expected not found, got %q", got)
	}
	mustHandle(t, b, command("/log 1"))
	if got := api.last(t).Text; !strings.Contains(got, string(model.ActionDeletePermanent)) {
		t.Fatalf("expected history to survive deletion, got %q", got)
	}
}

func TestBotConversation(t *testing.T) {
	t.Parallel()
	b, api, _ := newTestBot(t)

	mustHandle(t, b, command("/new"))
	mustHandle(t, b, text("Water plants"))
	mustHandle(t, b, text("Home"))
	mustHandle(t, b, text("Low"))
	mustHandle(t, b, text("2025-06-01"))
	mustHandle(t, b, text("Weekly"))

	got := api.last(t).Text
	for _, want := range []string{"Task saved", "Water plants", "Low", "Home", "weekly", "2025-06-01"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in %q", want, got)
		}
	}
	if b.hasConversation(7) {
		t.Fatalf("expected conversation to be cleared")
	}
}

func TestBotConversation_Cancel(t *testing.T) {
	t.Parallel()
	b, _, _ := newTestBot(t)

	mustHandle(t, b, command("/new"))
	mustHandle(t, b, text(btnCancelDialog))
	if b.hasConversation(7) {
		t.Fatalf("expected conversation to be cleared")
	}
}

func TestBotCallbackConfirmation(t *testing.T) {
	t.Parallel()
	b, api, _ := newTestBot(t)
	ctx := context.Background()

	mustHandle(t, b, command("/new Stretch | low"))

	cb := &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: 7},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 70, Type: "private"}},
		Data:    cbCompletePrefix + "1",
	}
	if err := b.handleCallback(ctx, cb); err != nil {
		t.Fatalf("handleCallback returned error: %v", err)
	}
	if _, ok := b.getConfirmation(7); !ok {
		t.Fatalf("expected a pending confirmation")
	}

	mustHandle(t, b, text(btnConfirm))
	if got := api.all(); !strings.Contains(got, "Task #1 completed. +10 XP") {
		t.Fatalf("expected completion after confirmation, got:\n%s", got)
	}
	if _, ok := b.getConfirmation(7); ok {
		t.Fatalf("expected confirmation to be cleared")
	}
}

func TestSendDailyReports(t *testing.T) {
	t.Parallel()
	b, api, _ := newTestBot(t)

	mustHandle(t, b, command("/start"))
	mustHandle(t, b, command("/new Read"))

	before := len(api.sent)
	if err := b.SendDailyReports(context.Background()); err != nil {
		t.Fatalf("SendDailyReports returned error: %v", err)
	}
	if len(api.sent) != before+1 {
		t.Fatalf("expected one report, got %d", len(api.sent)-before)
	}
	report := api.last(t)
	if report.ChatID != 70 || !strings.Contains(report.Text, "Daily report") {
		t.Fatalf("unexpected report %+v", report)
	}
}
