package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"task-tracker/internal/model"
	"task-tracker/internal/repository"
	"task-tracker/internal/service"
)

const (
	cbCompletePrefix = "complete:"
	cbDeletePrefix   = "delete:"
)

type confirmationAction int

const (
	actionComplete confirmationAction = iota
	actionDelete
)

type confirmationRequest struct {
	taskID uint
	action confirmationAction
}

// telegramAPI is the part of *tgbotapi.BotAPI the bot uses.
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot is a Telegram front-end over the task engine.
type Bot struct {
	api           telegramAPI
	subscribers   *repository.SubscriberRepository
	tasks         *service.TaskService
	categories    *service.CategoryService
	reminders     *service.ReminderService
	loc           *time.Location
	log           *slog.Logger
	now           func() time.Time
	conversations map[int64]*conversationState
	confirmations map[int64]confirmationRequest
	mu            sync.Mutex
}

func New(token string, subscribers *repository.SubscriberRepository, tasks *service.TaskService, categories *service.CategoryService, reminders *service.ReminderService, loc *time.Location, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	log.Info("bot authorized", "account", api.Self.UserName)

	return newBot(api, subscribers, tasks, categories, reminders, loc, log), nil
}

func newBot(api telegramAPI, subscribers *repository.SubscriberRepository, tasks *service.TaskService, categories *service.CategoryService, reminders *service.ReminderService, loc *time.Location, log *slog.Logger) *Bot {
	if loc == nil {
		loc = time.Local
	}
	return &Bot{
		api:           api,
		subscribers:   subscribers,
		tasks:         tasks,
		categories:    categories,
		reminders:     reminders,
		loc:           loc,
		log:           log,
		now:           time.Now,
		conversations: make(map[int64]*conversationState),
		confirmations: make(map[int64]confirmationRequest),
	}
}

// Start polls updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				b.log.Error("handle callback", "error", err)
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				b.log.Error("handle message", "error", err)
			}
		}
	}

	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Input cancelled.")
	}

	if !msg.IsCommand() {
		if handled, err := b.handleMenuAlias(ctx, msg); handled {
			return err
		}
	}

	if msg.IsCommand() {
		b.log.Debug("command", "user", msg.From.ID, "command", msg.Command(), "args", msg.CommandArguments())
		return b.handleCommand(ctx, msg)
	}

	if pending, ok := b.getConfirmation(msg.From.ID); ok {
		return b.handleConfirmationResponse(ctx, msg, pending)
	}

	if b.hasConversation(msg.From.ID) {
		return b.handleConversation(ctx, msg)
	}

	return b.sendText(msg.Chat.ID, "I did not get that. Send /new to add a task or /help for the list of commands.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.TrimSpace(msg.CommandArguments())
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "stop":
		return b.handleStop(ctx, msg)
	case "help":
		return b.handleHelp(chatID)
	case "new":
		if args == "" {
			return b.startNewTaskConversation(msg)
		}
		return b.handleNew(ctx, chatID, args)
	case "tasks":
		return b.sendTaskList(ctx, chatID)
	case "show":
		return b.withTaskID(chatID, args, "/show 12", func(id uint) error { return b.handleShow(ctx, chatID, id) })
	case "edit":
		return b.handleEdit(ctx, chatID, args)
	case "note":
		return b.handleNote(ctx, chatID, args)
	case "done":
		return b.withTaskID(chatID, args, "/done 12", func(id uint) error { return b.completeTask(ctx, chatID, id) })
	case "undo":
		return b.withTaskID(chatID, args, "/undo 12", func(id uint) error { return b.handleReopen(ctx, chatID, id) })
	case "pin", "unpin":
		pinned := msg.Command() == "pin"
		return b.withTaskID(chatID, args, "/"+msg.Command()+" 12", func(id uint) error { return b.handlePin(ctx, chatID, id, pinned) })
	case "archive", "unarchive":
		archived := msg.Command() == "archive"
		return b.withTaskID(chatID, args, "/"+msg.Command()+" 12", func(id uint) error { return b.handleArchive(ctx, chatID, id, archived) })
	case "archives":
		return b.sendView(ctx, chatID, model.ViewArchived)
	case "delete":
		return b.withTaskID(chatID, args, "/delete 12", func(id uint) error { return b.deleteTask(ctx, chatID, id, false) })
	case "purge":
		return b.withTaskID(chatID, args, "/purge 12", func(id uint) error { return b.deleteTask(ctx, chatID, id, true) })
	case "restore":
		return b.withTaskID(chatID, args, "/restore 12", func(id uint) error { return b.handleRestore(ctx, chatID, id) })
	case "bin":
		return b.sendView(ctx, chatID, model.ViewRecycleBin)
	case "copy":
		return b.withTaskID(chatID, args, "/copy 12", func(id uint) error { return b.handleCopy(ctx, chatID, id) })
	case "block":
		return b.handleBlock(ctx, chatID, args)
	case "unblock":
		return b.withTaskID(chatID, args, "/unblock 3", func(id uint) error { return b.handleUnblock(ctx, chatID, id) })
	case "blockers":
		return b.withTaskID(chatID, args, "/blockers 12", func(id uint) error { return b.handleBlockers(ctx, chatID, id) })
	case "sub":
		return b.handleAddSubtask(ctx, chatID, args)
	case "subs":
		return b.withTaskID(chatID, args, "/subs 12", func(id uint) error { return b.handleSubtasks(ctx, chatID, id) })
	case "subdone", "subundo":
		completed := msg.Command() == "subdone"
		return b.withTaskID(chatID, args, "/"+msg.Command()+" 4", func(id uint) error { return b.handleToggleSubtask(ctx, chatID, id, completed) })
	case "comment":
		return b.handleComment(ctx, chatID, args)
	case "comments":
		return b.withTaskID(chatID, args, "/comments 12", func(id uint) error { return b.handleComments(ctx, chatID, id) })
	case "share":
		return b.withTaskID(chatID, args, "/share 12", func(id uint) error { return b.handleShare(ctx, chatID, id) })
	case "shared":
		return b.handleShared(ctx, chatID, args)
	case "log":
		return b.withTaskID(chatID, args, "/log 12", func(id uint) error { return b.handleLog(ctx, chatID, id) })
	case "profile":
		return b.handleProfile(ctx, chatID)
	case "categories":
		return b.handleCategories(ctx, chatID)
	case "report":
		return b.handleReport(ctx, chatID)
	case "cancel":
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(chatID, "⏪ Input cancelled.")
	default:
		return b.sendText(chatID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	switch text {
	case strings.ToLower(menuLabelNewTask):
		return true, b.startNewTaskConversation(msg)
	case strings.ToLower(menuLabelTasks):
		return true, b.sendTaskList(ctx, msg.Chat.ID)
	case strings.ToLower(menuLabelCategories):
		return true, b.handleCategories(ctx, msg.Chat.ID)
	case strings.ToLower(menuLabelHelp):
		return true, b.handleHelp(msg.Chat.ID)
	default:
		return false, nil
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.Warn("callback ack", "error", err)
	}

	data := cb.Data
	switch {
	case strings.HasPrefix(data, cbCompletePrefix):
		taskID, err := parseTaskID(data, cbCompletePrefix)
		if err != nil {
			return nil
		}
		return b.askConfirmation(ctx, cb.Message.Chat.ID, cb.From.ID, taskID, actionComplete)
	case strings.HasPrefix(data, cbDeletePrefix):
		taskID, err := parseTaskID(data, cbDeletePrefix)
		if err != nil {
			return nil
		}
		return b.askConfirmation(ctx, cb.Message.Chat.ID, cb.From.ID, taskID, actionDelete)
	default:
		return nil
	}
}

func (b *Bot) askConfirmation(ctx context.Context, chatID, userID int64, taskID uint, action confirmationAction) error {
	task, err := b.tasks.GetTask(ctx, taskID)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}

	var text string
	if action == actionDelete {
		text = fmt.Sprintf("Move task «%s» (#%d) to the recycle bin?", escape(normalizeTitle(task.Description)), task.ID)
	} else {
		if task.IsCompleted() {
			return b.sendText(chatID, "Task is already completed.")
		}
		text = fmt.Sprintf("Mark task «%s» (#%d) as completed?", escape(normalizeTitle(task.Description)), task.ID)
	}
	b.setConfirmation(userID, confirmationRequest{taskID: task.ID, action: action})
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, req confirmationRequest) error {
	text := strings.TrimSpace(msg.Text)
	switch {
	case isConfirmInput(text):
		b.clearConfirmation(msg.From.ID)
		if req.action == actionDelete {
			return b.deleteTask(ctx, msg.Chat.ID, req.taskID, false)
		}
		return b.completeTask(ctx, msg.Chat.ID, req.taskID)
	case isCancelInput(text):
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "🔹 Main menu")
	default:
		return b.sendWithReplyMarkup(msg.Chat.ID, "Confirm or cancel, please.", confirmKeyboard())
	}
}

// SendDailyReports sends the digest to every subscribed chat.
func (b *Bot) SendDailyReports(ctx context.Context) error {
	subs, err := b.subscribers.ListAll(ctx)
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		return nil
	}

	text, err := b.reminders.DailySummary(ctx, b.now().In(b.loc))
	if err != nil {
		return err
	}
	for _, sub := range subs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := b.sendText(sub.ChatID, text); err != nil {
			b.log.Warn("send report", "chat_id", sub.ChatID, "error", err)
		}
	}
	return nil
}

// withTaskID parses args as a single id and runs fn, or replies with usage.
func (b *Bot) withTaskID(chatID int64, args, usage string, fn func(id uint) error) error {
	if args == "" {
		return b.sendText(chatID, "Give me an id: "+usage)
	}
	id, err := parseID(args)
	if err != nil {
		return b.sendText(chatID, "The id must be a positive number: "+usage)
	}
	return fn(id)
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) getConfirmation(userID int64) (confirmationRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	req, ok := b.confirmations[userID]
	return req, ok
}

func (b *Bot) setConfirmation(userID int64, req confirmationRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.confirmations[userID] = req
}

func (b *Bot) clearConfirmation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.confirmations, userID)
}

func (b *Bot) setConversation(userID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) hasConversation(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.conversations[userID]
	return ok
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}
