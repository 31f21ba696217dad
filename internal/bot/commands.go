package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"task-tracker/internal/model"
	"task-tracker/internal/service"
)

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.subscribers.UpsertFromTelegram(ctx, msg.From.ID, msg.Chat.ID, msg.From.FirstName, msg.From.LastName, msg.From.UserName); err != nil {
		return err
	}

	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "friend"
	}

	text := fmt.Sprintf(
		"👋 Hi, %s!\n<b>I keep your tasks, their blockers and your XP.</b>\n\n"+
			"You are subscribed to the daily report. Send /stop to unsubscribe.\n"+
			"See /help for everything I can do.",
		escape(name),
	)
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleStop(ctx context.Context, msg *tgbotapi.Message) error {
	if err := b.subscribers.Unsubscribe(ctx, msg.From.ID); err != nil {
		return err
	}
	return b.sendText(msg.Chat.ID, "🔕 Daily reports are off. /start turns them back on.")
}

func (b *Bot) handleHelp(chatID int64) error {
	text := "ℹ️ <b>Commands</b>\n" +
		"• /new desc | high | Work | 2025-11-30 | weekly: add a task (options are optional, any order)\n" +
		"• /tasks: open tasks · /archives: archived · /bin: recycle bin\n" +
		"• /show &lt;id&gt; · /log &lt;id&gt;: details and history\n" +
		"• /edit &lt;id&gt; new text | options · /note &lt;id&gt; text\n" +
		"• /done &lt;id&gt; · /undo &lt;id&gt;\n" +
		"• /pin, /unpin, /archive, /unarchive, /copy &lt;id&gt;\n" +
		"• /delete &lt;id&gt; · /restore &lt;id&gt; · /purge &lt;id&gt; (permanent)\n" +
		"• /block &lt;id&gt; &lt;blocker id&gt; · /blockers &lt;id&gt; · /unblock &lt;link id&gt;\n" +
		"• /sub &lt;id&gt; text · /subs &lt;id&gt; · /subdone, /subundo &lt;subtask id&gt;\n" +
		"• /comment &lt;id&gt; text · /comments &lt;id&gt;\n" +
		"• /share &lt;id&gt; · /shared &lt;code&gt;\n" +
		"• /profile · /categories · /report\n" +
		"• /cancel: stop the current input"
	return b.sendText(chatID, text)
}

func (b *Bot) handleNew(ctx context.Context, chatID int64, args string) error {
	input, err := parseNewTask(args, b.loc)
	if err != nil {
		return b.sendText(chatID, "⚠️ "+escape(err.Error()))
	}
	return b.createTask(ctx, chatID, input)
}

func (b *Bot) sendTaskList(ctx context.Context, chatID int64) error {
	items, err := b.tasks.ListTasks(ctx, model.ViewActive)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}

	groups := groupByCategory(items)
	if len(groups) == 0 {
		return b.sendText(chatID, "No open tasks. Add one with /new.")
	}

	now := b.now().In(b.loc)
	var builder strings.Builder
	builder.WriteString("📋 <b>Open tasks</b>\n")
	builder.WriteString("Use the buttons to complete a task or move it to the bin.\n\n")

	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, group := range groups {
		builder.WriteString(fmt.Sprintf("<b>%s</b>\n", categoryLabel(group.Name)))
		for _, item := range group.Items {
			builder.WriteString(formatTask(item, now))
			buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("✅ #%d · %s", item.ID, shortTitle(item.Description, 20)), fmt.Sprintf("%s%d", cbCompletePrefix, item.ID)),
				tgbotapi.NewInlineKeyboardButtonData("🗑", fmt.Sprintf("%s%d", cbDeletePrefix, item.ID)),
			))
		}
		builder.WriteByte('\n')
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(builder.String()))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err = b.api.Send(msg)
	return err
}

func (b *Bot) sendView(ctx context.Context, chatID int64, view model.View) error {
	items, err := b.tasks.ListTasks(ctx, view)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}

	title := "🗄 <b>Archive</b>"
	if view == model.ViewRecycleBin {
		title = "🗑 <b>Recycle bin</b>"
	}
	if len(items) == 0 {
		return b.sendText(chatID, title+"\nEmpty.")
	}

	now := b.now().In(b.loc)
	var builder strings.Builder
	builder.WriteString(title + "\n")
	for _, item := range items {
		builder.WriteString(formatTask(item, now))
	}
	return b.sendText(chatID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleShow(ctx context.Context, chatID int64, id uint) error {
	task, err := b.tasks.GetTask(ctx, id)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	return b.sendText(chatID, formatTaskDetails(task, b.loc))
}

func (b *Bot) handleEdit(ctx context.Context, chatID int64, args string) error {
	id, rest, err := splitIDArg(args)
	if err != nil || rest == "" {
		return b.sendText(chatID, "Usage: /edit 12 new text | high | Work | 2025-11-30 | weekly")
	}
	patch, err := parseEdit(rest, b.loc)
	if err != nil {
		return b.sendText(chatID, "⚠️ "+escape(err.Error()))
	}
	if _, err := b.tasks.UpdateTask(ctx, id, patch); err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	return b.handleShow(ctx, chatID, id)
}

func (b *Bot) handleNote(ctx context.Context, chatID int64, args string) error {
	id, rest, err := splitIDArg(args)
	if err != nil {
		return b.sendText(chatID, "Usage: /note 12 text (empty text clears the note)")
	}
	var notes *string
	if rest != "" {
		notes = &rest
	}
	if _, err := b.tasks.UpdateTask(ctx, id, model.TaskPatch{Notes: model.Some(notes)}); err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	return b.sendText(chatID, "📝 Note saved.")
}

func (b *Bot) createTask(ctx context.Context, chatID int64, input service.TaskInput) error {
	id, err := b.tasks.CreateTask(ctx, input)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	b.log.Info("task created", "task_id", id)

	task, err := b.tasks.GetTask(ctx, id)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	return b.sendText(chatID, "✅ <b>Task saved</b>\n"+formatTaskDetails(task, b.loc))
}

func (b *Bot) completeTask(ctx context.Context, chatID int64, id uint) error {
	res, err := b.tasks.CompleteTask(ctx, id)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	if res.XPEarned == 0 {
		return b.sendText(chatID, "Task is already completed.")
	}
	b.log.Info("task completed", "task_id", id, "xp", res.XPEarned, "recurred", res.Recurred)

	text := fmt.Sprintf("✅ Task #%d completed. +%d XP", id, res.XPEarned)
	if res.Recurred {
		if next, err := b.tasks.GetTask(ctx, res.NextTaskID); err == nil && next.DueDate != nil {
			text += fmt.Sprintf("\n♻️ Next occurrence #%d is due %s", next.ID, next.DueDate.In(b.loc).Format(dateLayout))
		}
	}
	if err := b.sendText(chatID, text); err != nil {
		return err
	}
	return b.sendTaskList(ctx, chatID)
}

func (b *Bot) handleReopen(ctx context.Context, chatID int64, id uint) error {
	task, err := b.tasks.GetTask(ctx, id)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	if !task.IsCompleted() {
		return b.sendText(chatID, "Task is not completed.")
	}
	if _, err := b.tasks.ReopenTask(ctx, id); err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	return b.sendText(chatID, fmt.Sprintf("↩️ Task #%d is pending again. XP stays.", id))
}

func (b *Bot) handlePin(ctx context.Context, chatID int64, id uint, pinned bool) error {
	if _, err := b.tasks.PinTask(ctx, id, pinned); err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	if pinned {
		return b.sendText(chatID, fmt.Sprintf("📌 Task #%d pinned.", id))
	}
	return b.sendText(chatID, fmt.Sprintf("Task #%d unpinned.", id))
}

func (b *Bot) handleArchive(ctx context.Context, chatID int64, id uint, archived bool) error {
	if _, err := b.tasks.ArchiveTask(ctx, id, archived); err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	if archived {
		return b.sendText(chatID, fmt.Sprintf("🗄 Task #%d archived.", id))
	}
	return b.sendText(chatID, fmt.Sprintf("Task #%d is back from the archive.", id))
}

func (b *Bot) deleteTask(ctx context.Context, chatID int64, id uint, hard bool) error {
	task, err := b.tasks.GetTask(ctx, id)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	applied, err := b.tasks.DeleteTask(ctx, id, hard)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	b.log.Info("task deleted", "task_id", id, "hard", hard)

	title := escape(normalizeTitle(task.Description))
	switch {
	case hard:
		return b.sendText(chatID, fmt.Sprintf("🔥 Task «%s» deleted for good.", title))
	case !applied:
		return b.sendText(chatID, fmt.Sprintf("Task «%s» is already in the bin.", title))
	default:
		return b.sendText(chatID, fmt.Sprintf("🗑 Task «%s» moved to the bin. /restore %d brings it back.", title, id))
	}
}

func (b *Bot) handleRestore(ctx context.Context, chatID int64, id uint) error {
	applied, err := b.tasks.RestoreTask(ctx, id)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	if !applied {
		return b.sendText(chatID, "Task is not in the bin.")
	}
	return b.sendText(chatID, fmt.Sprintf("♻️ Task #%d restored.", id))
}

func (b *Bot) handleCopy(ctx context.Context, chatID int64, id uint) error {
	dupID, err := b.tasks.DuplicateTask(ctx, id)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	return b.sendText(chatID, fmt.Sprintf("📄 Copied to task #%d.", dupID))
}

func (b *Bot) handleBlock(ctx context.Context, chatID int64, args string) error {
	id, rest, err := splitIDArg(args)
	if err != nil {
		return b.sendText(chatID, "Usage: /block 12 5 (task 12 waits for task 5)")
	}
	blockerID, err := parseID(rest)
	if err != nil {
		return b.sendText(chatID, "Usage: /block 12 5 (task 12 waits for task 5)")
	}
	linkID, err := b.tasks.AddDependency(ctx, id, blockerID)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	return b.sendText(chatID, fmt.Sprintf("🔗 Task #%d now waits for #%d (link %d).", id, blockerID, linkID))
}

func (b *Bot) handleUnblock(ctx context.Context, chatID int64, linkID uint) error {
	if err := b.tasks.RemoveDependency(ctx, linkID); err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	return b.sendText(chatID, fmt.Sprintf("Link %d removed.", linkID))
}

func (b *Bot) handleBlockers(ctx context.Context, chatID int64, id uint) error {
	blockers, err := b.tasks.GetBlockers(ctx, id)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	if len(blockers) == 0 {
		return b.sendText(chatID, fmt.Sprintf("Task #%d is not blocked.", id))
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("🔗 <b>Task #%d waits for</b>\n", id))
	for _, blocker := range blockers {
		mark := "⏳"
		if blocker.IsCompleted() {
			mark = "✅"
		}
		builder.WriteString(fmt.Sprintf("%s #%d %s <i>(link %d)</i>\n", mark, blocker.ID, escape(blocker.Description), blocker.LinkID))
	}
	return b.sendText(chatID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleAddSubtask(ctx context.Context, chatID int64, args string) error {
	id, rest, err := splitIDArg(args)
	if err != nil || rest == "" {
		return b.sendText(chatID, "Usage: /sub 12 buy tickets")
	}
	subID, err := b.tasks.AddSubtask(ctx, id, rest)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	return b.sendText(chatID, fmt.Sprintf("☑️ Subtask %d added to task #%d.", subID, id))
}

func (b *Bot) handleSubtasks(ctx context.Context, chatID int64, id uint) error {
	subtasks, err := b.tasks.ListSubtasks(ctx, id)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	if len(subtasks) == 0 {
		return b.sendText(chatID, fmt.Sprintf("Task #%d has no subtasks.", id))
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("☑️ <b>Subtasks of #%d</b>\n", id))
	for _, sub := range subtasks {
		mark := "⬜"
		if sub.IsCompleted {
			mark = "✅"
		}
		builder.WriteString(fmt.Sprintf("%s <code>%d</code> %s\n", mark, sub.ID, escape(sub.Description)))
	}
	return b.sendText(chatID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleToggleSubtask(ctx context.Context, chatID int64, id uint, completed bool) error {
	res, err := b.tasks.ToggleSubtask(ctx, id, completed)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	if res.XPEarned > 0 {
		return b.sendText(chatID, fmt.Sprintf("✅ Subtask done. +%d XP", res.XPEarned))
	}
	return b.sendText(chatID, "Subtask updated.")
}

func (b *Bot) handleComment(ctx context.Context, chatID int64, args string) error {
	id, rest, err := splitIDArg(args)
	if err != nil || rest == "" {
		return b.sendText(chatID, "Usage: /comment 12 text")
	}
	if _, err := b.tasks.AddComment(ctx, id, rest); err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	return b.sendText(chatID, "💬 Comment added.")
}

func (b *Bot) handleComments(ctx context.Context, chatID int64, id uint) error {
	comments, err := b.tasks.ListComments(ctx, id)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	if len(comments) == 0 {
		return b.sendText(chatID, "No comments yet.")
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("💬 <b>Comments on #%d</b>\n", id))
	for _, c := range comments {
		builder.WriteString(fmt.Sprintf("<code>%s</code> %s\n", c.CreatedAt.In(b.loc).Format(dateTimeLayout), escape(c.Content)))
	}
	return b.sendText(chatID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleShare(ctx context.Context, chatID int64, id uint) error {
	hash, err := b.tasks.ShareTask(ctx, id)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	return b.sendText(chatID, fmt.Sprintf("🔗 Share code: <code>%s</code>\nAnyone can open it with /shared %s", hash, hash))
}

func (b *Bot) handleShared(ctx context.Context, chatID int64, hash string) error {
	if hash == "" {
		return b.sendText(chatID, "Usage: /shared &lt;code&gt;")
	}
	task, err := b.tasks.GetSharedTask(ctx, hash)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	return b.sendText(chatID, formatTaskDetails(task, b.loc))
}

func (b *Bot) handleLog(ctx context.Context, chatID int64, id uint) error {
	entries, err := b.tasks.GetActivity(ctx, id)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	if len(entries) == 0 {
		return b.sendText(chatID, "No history for this task.")
	}
	return b.sendText(chatID, fmt.Sprintf("📜 <b>History of #%d</b>\n%s", id, formatActivity(entries, b.loc)))
}

func (b *Bot) handleProfile(ctx context.Context, chatID int64) error {
	profile, err := b.tasks.GetProfile(ctx)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	toNext := model.XPPerLevel - profile.XP%model.XPPerLevel
	return b.sendText(chatID, fmt.Sprintf("⭐ <b>%s</b>\nLevel %d · %d XP\n%d XP to the next level",
		escape(profile.RankTitle), profile.Level, profile.XP, toNext))
}

func (b *Bot) handleCategories(ctx context.Context, chatID int64) error {
	categories, err := b.categories.List(ctx)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	if len(categories) == 0 {
		return b.sendText(chatID, "No categories yet. They appear as you add tasks.")
	}
	var builder strings.Builder
	builder.WriteString("📂 <b>Categories</b>\n")
	for _, name := range categories {
		builder.WriteString(fmt.Sprintf("• %s\n", categoryLabel(name)))
	}
	return b.sendText(chatID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleReport(ctx context.Context, chatID int64) error {
	text, err := b.reminders.DailySummary(ctx, b.now().In(b.loc))
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	return b.sendText(chatID, text)
}
