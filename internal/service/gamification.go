package service

import "task-tracker/internal/model"

// SubtaskXP is credited when a subtask is checked off, whatever the parent's priority.
const SubtaskXP = 5

// XPForPriority is the reward for completing a task.
func XPForPriority(p model.Priority) int {
	switch p {
	case model.PriorityHigh:
		return 50
	case model.PriorityMedium:
		return 30
	default:
		return 10
	}
}
