package tools

import "time"

// TodoStatus is the lifecycle state of one plan entry.
type TodoStatus string

const (
	TodoPending    TodoStatus = "pending"
	TodoInProgress TodoStatus = "in_progress"
	TodoCompleted  TodoStatus = "completed"
)

// TodoItem is one entry in a TodoPlan.
type TodoItem struct {
	Task      string     `json:"task"`
	Status    TodoStatus `json:"status"`
	Priority  int        `json:"priority"`
	CreatedAt time.Time  `json:"created_at"`
}

// TodoPlan is the agent-owned scratch task list. Created by the
// plan_todo tool, advanced by the rule-based decision source, discarded
// when the run ends. Never persisted.
type TodoPlan struct {
	Items []*TodoItem `json:"items"`
}

// NewTodoPlan builds a plan from task descriptions, all pending,
// priorities assigned in order.
func NewTodoPlan(tasks []string) *TodoPlan {
	now := time.Now()
	items := make([]*TodoItem, 0, len(tasks))
	for i, task := range tasks {
		items = append(items, &TodoItem{
			Task:      task,
			Status:    TodoPending,
			Priority:  i + 1,
			CreatedAt: now,
		})
	}
	return &TodoPlan{Items: items}
}

// NextPending returns the first pending item, or nil when none remain.
func (p *TodoPlan) NextPending() *TodoItem {
	if p == nil {
		return nil
	}
	for _, item := range p.Items {
		if item.Status == TodoPending {
			return item
		}
	}
	return nil
}

// Counts returns how many items are in each state.
func (p *TodoPlan) Counts() (pending, inProgress, completed int) {
	if p == nil {
		return 0, 0, 0
	}
	for _, item := range p.Items {
		switch item.Status {
		case TodoPending:
			pending++
		case TodoInProgress:
			inProgress++
		case TodoCompleted:
			completed++
		}
	}
	return pending, inProgress, completed
}
