package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"task-tracker/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageDescription
	stageCategory
	stagePriority
	stageDueDate
	stageRecurrence
)

type conversationState struct {
	stage conversationStage
	input service.TaskInput
}

func (b *Bot) startNewTaskConversation(msg *tgbotapi.Message) error {
	b.setConversation(msg.From.ID, &conversationState{stage: stageDescription})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 New task.\n<b>Step 1:</b> what needs to be done?", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state := b.getConversation(msg.From.ID)
	if state == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageDescription:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "The description cannot be empty.", cancelKeyboard())
		}
		state.input.Description = text
		state.stage = stageCategory
		categories, err := b.categories.List(ctx)
		if err != nil {
			b.log.Warn("list categories", "error", err)
		}
		return b.sendWithReplyMarkup(msg.Chat.ID, "🏷 Pick a category or type a new one.", optionKeyboard(categories))
	case stageCategory:
		if !isSkipInput(text) {
			state.input.Category = text
		}
		state.stage = stagePriority
		return b.sendWithReplyMarkup(msg.Chat.ID, "❗ Priority?", optionKeyboard([]string{"High", "Medium", "Low"}))
	case stagePriority:
		if !isSkipInput(text) {
			p, ok := parsePriority(text)
			if !ok {
				return b.sendWithReplyMarkup(msg.Chat.ID, "Choose High, Medium or Low.", optionKeyboard([]string{"High", "Medium", "Low"}))
			}
			state.input.Priority = p
		}
		state.stage = stageDueDate
		return b.sendWithReplyMarkup(msg.Chat.ID, "⏰ Due date as <code>2025-11-30</code> or <code>2025-11-30 18:00</code>.", optionKeyboard(nil))
	case stageDueDate:
		if !isSkipInput(text) {
			due, ok := parseDue(text, b.loc)
			if !ok {
				return b.sendWithReplyMarkup(msg.Chat.ID, "I cannot read that date. Use <code>2025-11-30</code> or skip.", optionKeyboard(nil))
			}
			state.input.DueDate = &due
		}
		state.stage = stageRecurrence
		return b.sendWithReplyMarkup(msg.Chat.ID, "🔁 Does it repeat?", optionKeyboard([]string{"Daily", "Weekly", "Monthly", "None"}))
	case stageRecurrence:
		if !isSkipInput(text) {
			r, ok := parseRecurrence(text)
			if !ok {
				return b.sendWithReplyMarkup(msg.Chat.ID, "Choose Daily, Weekly, Monthly or None.", optionKeyboard([]string{"Daily", "Weekly", "Monthly", "None"}))
			}
			state.input.RecurrenceRule = r
		}
		input := state.input
		b.clearConversation(msg.From.ID)
		return b.createTask(ctx, msg.Chat.ID, input)
	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Input reset. Try again with /new.")
	}
}
