package prompt

import "fmt"

// TaskKind selects which task variant a request carries.
type TaskKind int

const (
	// TaskFreeform is a natural-language request typed by the user.
	TaskFreeform TaskKind = iota
	// TaskDocument is an externally supplied specification document.
	TaskDocument
)

// Task is the user's request: exactly one variant per invocation.
type Task struct {
	Kind TaskKind
	Text string
}

// FreeformTask builds a freeform task.
func FreeformTask(text string) Task {
	return Task{Kind: TaskFreeform, Text: text}
}

// DocumentTask builds a document task.
func DocumentTask(text string) Task {
	return Task{Kind: TaskDocument, Text: text}
}

// Validate checks that the task is populated.
func (t Task) Validate() error {
	if t.Text == "" {
		return fmt.Errorf("task text is empty")
	}
	switch t.Kind {
	case TaskFreeform, TaskDocument:
		return nil
	default:
		return fmt.Errorf("unknown task kind %d", t.Kind)
	}
}
