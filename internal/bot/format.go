package bot

import (
	"errors"
	"fmt"
	"html"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"task-tracker/internal/model"
	"task-tracker/internal/service"
)

const (
	btnSkip         = "⏭️ Skip"
	btnConfirm      = "✅ Confirm"
	btnCancel       = "↩️ Cancel"
	btnCancelDialog = "⏪ Stop input"
	iconDefault     = "🟢"
	iconDue         = "⏳"
	iconOverdue     = "⚠️"
	iconRecurring   = "♻️"
	iconPinned      = "📌"

	menuLabelNewTask    = "➕ New task"
	menuLabelTasks      = "📋 Tasks"
	menuLabelCategories = "📂 Categories"
	menuLabelHelp       = "ℹ️ Help"

	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04"
)

// parseNewTask reads "description | option | option ...". Options are matched
// by value: a priority, a recurrence rule, a due date, anything else is the category.
func parseNewTask(args string, loc *time.Location) (service.TaskInput, error) {
	parts := strings.Split(args, "|")
	input := service.TaskInput{Description: strings.TrimSpace(parts[0])}
	if input.Description == "" {
		return input, errors.New("description is required")
	}
	if err := applyOptions(&input, parts[1:], loc); err != nil {
		return input, err
	}
	return input, nil
}

func applyOptions(input *service.TaskInput, options []string, loc *time.Location) error {
	categorySet := false
	for _, raw := range options {
		opt := strings.TrimSpace(raw)
		if opt == "" {
			continue
		}
		if p, ok := parsePriority(opt); ok {
			input.Priority = p
			continue
		}
		if r, ok := parseRecurrence(opt); ok {
			input.RecurrenceRule = r
			continue
		}
		if due, ok := parseDue(opt, loc); ok {
			input.DueDate = &due
			continue
		}
		if categorySet {
			return fmt.Errorf("unexpected option %q", opt)
		}
		input.Category = opt
		categorySet = true
	}
	return nil
}

// parseEdit reads "new description | options" or "| options" into a patch.
// The option "nodue" clears the due date.
func parseEdit(args string, loc *time.Location) (model.TaskPatch, error) {
	parts := strings.Split(args, "|")
	var patch model.TaskPatch
	if d := strings.TrimSpace(parts[0]); d != "" {
		patch.Description = model.Some(d)
	}

	var options []string
	for _, opt := range parts[1:] {
		if strings.EqualFold(strings.TrimSpace(opt), "nodue") {
			patch.DueDate = model.Some[*time.Time](nil)
			continue
		}
		options = append(options, opt)
	}

	var input service.TaskInput
	if err := applyOptions(&input, options, loc); err != nil {
		return patch, err
	}
	if input.Priority != "" {
		patch.Priority = model.Some(input.Priority)
	}
	if input.RecurrenceRule != "" {
		patch.RecurrenceRule = model.Some(input.RecurrenceRule)
	}
	if input.Category != "" {
		patch.Category = model.Some(input.Category)
	}
	if input.DueDate != nil {
		patch.DueDate = model.Some(input.DueDate)
	}
	if patch.Empty() {
		return patch, errors.New("nothing to change")
	}
	return patch, nil
}

func parsePriority(s string) (model.Priority, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high", "!":
		return model.PriorityHigh, true
	case "medium":
		return model.PriorityMedium, true
	case "low":
		return model.PriorityLow, true
	}
	return "", false
}

func parseRecurrence(s string) (model.Recurrence, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily":
		return model.RecurrenceDaily, true
	case "weekly":
		return model.RecurrenceWeekly, true
	case "monthly":
		return model.RecurrenceMonthly, true
	case "none", "once":
		return model.RecurrenceNone, true
	}
	return "", false
}

// parseDue accepts "2025-11-30" (end of that day) or "2025-11-30 18:00".
func parseDue(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(dateTimeLayout, s, loc); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation(dateLayout, s, loc); err == nil {
		return t.Add(23*time.Hour + 59*time.Minute), true
	}
	return time.Time{}, false
}

func parseID(raw string) (uint, error) {
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || value == 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return uint(value), nil
}

func parseTaskID(data, prefix string) (uint, error) {
	return parseID(strings.TrimPrefix(data, prefix))
}

// splitIDArg splits "12 rest of text" into the id and the trimmed rest.
func splitIDArg(args string) (uint, string, error) {
	args = strings.TrimSpace(args)
	head, rest, _ := strings.Cut(args, " ")
	id, err := parseID(head)
	if err != nil {
		return 0, "", err
	}
	return id, strings.TrimSpace(rest), nil
}

// userMessage turns an engine error into text for the chat. Storage details
// never reach the user.
func userMessage(err error) string {
	var blocked *service.BlockedError
	switch {
	case errors.As(err, &blocked):
		return "⛔ Still blocked by: " + escape(strings.Join(blocked.Blockers, ", "))
	case errors.Is(err, service.ErrNotFound):
		return "Task not found."
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrConflict):
		return "⚠️ " + escape(err.Error())
	default:
		return "Something went wrong. Try again later."
	}
}

type categoryGroup struct {
	Name  string
	Items []model.TaskListItem
}

// groupByCategory drops completed tasks and groups the rest by category,
// keeping the list order inside each group.
func groupByCategory(items []model.TaskListItem) []categoryGroup {
	index := make(map[string]int)
	var groups []categoryGroup
	for _, item := range items {
		if item.IsCompleted() {
			continue
		}
		name := strings.TrimSpace(item.Category)
		key := strings.ToLower(name)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, categoryGroup{Name: name})
		}
		groups[i].Items = append(groups[i].Items, item)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return strings.ToLower(groups[i].Name) < strings.ToLower(groups[j].Name)
	})
	return groups
}

func formatTask(item model.TaskListItem, now time.Time) string {
	var b strings.Builder
	icon := iconDefault
	if item.DueDate != nil {
		d := item.DueDate.In(now.Location())
		if now.After(d) {
			icon = iconOverdue
		} else if d.Sub(now) <= 48*time.Hour {
			icon = iconDue
		}
	}
	if item.RecurrenceRule.Recurring() {
		icon += iconRecurring
	}
	if item.IsPinned {
		icon = iconPinned + icon
	}

	b.WriteString(fmt.Sprintf("%s <b>#%d</b> %s", icon, item.ID, escape(normalizeTitle(item.Description))))
	if item.Priority == model.PriorityHigh {
		b.WriteString(" ❗")
	}
	if item.SubtaskCount > 0 {
		b.WriteString(fmt.Sprintf(" [%d/%d]", item.SubtaskDone, item.SubtaskCount))
	}
	b.WriteByte('\n')

	if item.DueDate != nil {
		d := item.DueDate.In(now.Location())
		if now.After(d) {
			b.WriteString(fmt.Sprintf("   ⏰ Due %s · <b>overdue</b>\n", d.Format(dateLayout)))
		} else {
			daysLeft := int(d.Sub(now).Hours()/24) + 1
			b.WriteString(fmt.Sprintf("   ⏰ Due %s · ≈%d d left\n", d.Format(dateLayout), daysLeft))
		}
	}
	if item.RecurrenceRule.Recurring() {
		b.WriteString(fmt.Sprintf("   🔄 Repeats %s\n", strings.ToLower(string(item.RecurrenceRule))))
	}
	return b.String()
}

func formatTaskDetails(task *model.Task, loc *time.Location) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("<b>#%d</b> %s\n", task.ID, escape(normalizeTitle(task.Description))))
	b.WriteString(fmt.Sprintf("• <b>Priority:</b> %s\n", task.Priority))
	b.WriteString(fmt.Sprintf("• <b>Category:</b> %s\n", categoryLabel(task.Category)))
	b.WriteString(fmt.Sprintf("• <b>Status:</b> %s\n", task.Status))
	if task.DueDate != nil {
		b.WriteString(fmt.Sprintf("• <b>Due:</b> %s\n", task.DueDate.In(loc).Format(dateTimeLayout)))
	}
	if task.RecurrenceRule.Recurring() {
		b.WriteString(fmt.Sprintf("• <b>Repeats:</b> %s\n", strings.ToLower(string(task.RecurrenceRule))))
	}
	if task.Notes != nil && strings.TrimSpace(*task.Notes) != "" {
		b.WriteString(fmt.Sprintf("• <b>Notes:</b> %s\n", escape(*task.Notes)))
	}
	if task.IsArchived {
		b.WriteString("• 🗄 archived\n")
	}
	if task.DeletedAt != nil {
		b.WriteString("• 🗑 in recycle bin\n")
	}
	return strings.TrimSpace(b.String())
}

func formatActivity(entries []model.ActivityLog, loc *time.Location) string {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(fmt.Sprintf("<code>%s</code> %s · %s\n",
			e.CreatedAt.In(loc).Format(dateTimeLayout), e.Action, escape(e.Details)))
	}
	return strings.TrimSpace(b.String())
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	clean = normalizeTitle(clean)
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func normalizeTitle(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	runes := []rune(value)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func categoryLabel(name string) string {
	base := strings.TrimSpace(name)
	var icon string
	switch strings.ToLower(base) {
	case "work":
		icon = "💼"
	case "study":
		icon = "🎓"
	case "shopping":
		icon = "🛒"
	case "health":
		icon = "🩺"
	case "personal", "general":
		icon = "🧩"
	default:
		icon = "🏷️"
	}
	return fmt.Sprintf("%s %s", icon, escape(normalizeTitle(base)))
}

func escape(s string) string {
	return html.EscapeString(s)
}

func isSkipInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == "-" || value == strings.ToLower(btnSkip) || value == "skip"
}

func isConfirmInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnConfirm) || value == "confirm" || value == "yes"
}

func isCancelInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancel) || value == "cancel" || value == "no"
}

func isCancelDialogInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancelDialog) || value == "stop"
}

func confirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnConfirm),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelNewTask),
			tgbotapi.NewKeyboardButton(menuLabelTasks),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelCategories),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

// optionKeyboard offers the given choices in rows of two, plus skip and stop.
func optionKeyboard(choices []string) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	for i := 0; i < len(choices); i += 2 {
		row := tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(choices[i]))
		if i+1 < len(choices) {
			row = append(row, tgbotapi.NewKeyboardButton(choices[i+1]))
		}
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(btnSkip),
		tgbotapi.NewKeyboardButton(btnCancelDialog),
	))
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}
