package model

import "time"

// Optional carries a value together with whether it was provided at all,
// so that "leave untouched" and "set to zero/null" stay distinguishable.
type Optional[T any] struct {
	value T
	set   bool
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}

func (o Optional[T]) IsSet() bool {
	return o.set
}

// TaskPatch lists the task attributes a caller may change. Unset fields are left as they are.
type TaskPatch struct {
	Description       Optional[string]
	DueDate           Optional[*time.Time]
	Priority          Optional[Priority]
	Category          Optional[string]
	Status            Optional[Status]
	RecurrenceRule    Optional[Recurrence]
	Notes             Optional[*string]
	IsPinned          Optional[bool]
	IsArchived        Optional[bool]
	RequiresBiometric Optional[bool]
	Position          Optional[int]
}

// Empty reports whether no field is set.
func (p TaskPatch) Empty() bool {
	return len(p.Columns()) == 0
}

// Columns maps the set fields to their column names.
func (p TaskPatch) Columns() map[string]any {
	cols := make(map[string]any)
	if v, ok := p.Description.Get(); ok {
		cols["description"] = v
	}
	if v, ok := p.DueDate.Get(); ok {
		cols["due_date"] = v
	}
	if v, ok := p.Priority.Get(); ok {
		cols["priority"] = v
	}
	if v, ok := p.Category.Get(); ok {
		cols["category"] = v
	}
	if v, ok := p.Status.Get(); ok {
		cols["status"] = v
	}
	if v, ok := p.RecurrenceRule.Get(); ok {
		cols["recurrence_rule"] = v
	}
	if v, ok := p.Notes.Get(); ok {
		cols["notes"] = v
	}
	if v, ok := p.IsPinned.Get(); ok {
		cols["is_pinned"] = v
	}
	if v, ok := p.IsArchived.Get(); ok {
		cols["is_archived"] = v
	}
	if v, ok := p.RequiresBiometric.Get(); ok {
		cols["requires_biometric"] = v
	}
	if v, ok := p.Position.Get(); ok {
		cols["position"] = v
	}
	return cols
}

// WithoutStatus returns a copy of the patch with Status unset.
func (p TaskPatch) WithoutStatus() TaskPatch {
	p.Status = Optional[Status]{}
	return p
}
