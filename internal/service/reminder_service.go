package service

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"task-tracker/internal/model"
)

// ReminderService builds human-readable summaries for daily notifications.
type ReminderService struct {
	tasks *TaskService
}

func NewReminderService(tasks *TaskService) *ReminderService {
	return &ReminderService{tasks: tasks}
}

func (s *ReminderService) DailySummary(ctx context.Context, now time.Time) (string, error) {
	items, err := s.tasks.ListTasks(ctx, model.ViewActive)
	if err != nil {
		return "", err
	}
	done, err := s.tasks.RecentlyCompleted(ctx, now.Add(-24*time.Hour))
	if err != nil {
		return "", err
	}
	profile, err := s.tasks.GetProfile(ctx)
	if err != nil {
		return "", err
	}

	var pending []model.Task
	for _, item := range items {
		if !item.IsCompleted() {
			pending = append(pending, item.Task)
		}
	}

	sort.SliceStable(pending, func(i, j int) bool {
		switch {
		case pending[i].DueDate == nil && pending[j].DueDate == nil:
			return pending[i].CreatedAt.After(pending[j].CreatedAt)
		case pending[i].DueDate == nil:
			return false
		case pending[j].DueDate == nil:
			return true
		default:
			return pending[i].DueDate.Before(*pending[j].DueDate)
		}
	})

	var builder strings.Builder
	builder.WriteString("📋 <b>Daily report</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("2006-01-02")))

	builder.WriteString("🔥 <b>Open tasks</b>\n")
	if len(pending) == 0 {
		builder.WriteString("— nothing open\n")
	} else {
		for _, task := range pending {
			builder.WriteString(formatTask(task, now))
		}
	}

	builder.WriteString("\n✅ <b>Completed in the last 24h</b>\n")
	if len(done) == 0 {
		builder.WriteString("— nothing yet\n")
	} else {
		for _, task := range done {
			builder.WriteString(fmt.Sprintf("✔️ %s\n", html.EscapeString(strings.TrimSpace(task.Description))))
		}
	}

	builder.WriteString(fmt.Sprintf("\n⭐ Level %d · %d XP · %s", profile.Level, profile.XP, html.EscapeString(profile.RankTitle)))

	return strings.TrimSpace(builder.String()), nil
}

func formatTask(task model.Task, now time.Time) string {
	var sb strings.Builder

	icon := "🟢"
	if task.DueDate != nil {
		d := task.DueDate.In(now.Location())
		switch {
		case now.After(d):
			icon = "⚠️"
		case d.Sub(now) <= 48*time.Hour:
			icon = "⏳"
		}
	}
	if task.RecurrenceRule.Recurring() {
		icon += "♻️"
	}

	sb.WriteString(fmt.Sprintf("%s %s", icon, html.EscapeString(strings.TrimSpace(task.Description))))

	if category := strings.TrimSpace(task.Category); category != "" {
		sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", html.EscapeString(category)))
	}
	if task.Priority == model.PriorityHigh {
		sb.WriteString(" ❗")
	}

	if task.DueDate != nil {
		d := task.DueDate.In(now.Location())
		if now.After(d) {
			sb.WriteString(fmt.Sprintf("\n   ⏰ due %s — <b>overdue</b>", d.Format("2006-01-02")))
		} else {
			daysLeft := int(d.Sub(now).Hours()/24) + 1
			sb.WriteString(fmt.Sprintf("\n   ⏰ due %s · ≈%d d left", d.Format("2006-01-02"), daysLeft))
		}
	}

	sb.WriteByte('\n')
	return sb.String()
}
