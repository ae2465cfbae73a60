package dailytasks

import "strings"

// Task is one entry of the daily list. Tasks are created with AddTask, toggled with ToggleTask and removed with
// DeleteTask; values returned by State are copies, and modifying them has no effect on the list.
type Task struct {
	ID   TaskID `json:"id"`
	Text string `json:"text"`
	Done bool   `json:"done"`
}

type taskPredicate func(Task) bool

func negate(p taskPredicate) taskPredicate {
	return func(task Task) bool {
		return !p(task)
	}
}

type TaskScan struct {
	state      *State
	predicates []taskPredicate
}

// Not negates the last predicate added.  It will panic if no predicates were added.
func (s *TaskScan) Not() *TaskScan {
	i := len(s.predicates) - 1
	s.predicates[i] = negate(s.predicates[i])
	return s
}

func (s *TaskScan) WithDone(value bool) *TaskScan {
	s.predicates = append(s.predicates, func(task Task) bool {
		return task.Done == value
	})
	return s
}

// WithText looks for tasks containing the given substring, ignoring case.
func (s *TaskScan) WithText(needle string) *TaskScan {
	needle = strings.ToLower(needle)
	s.predicates = append(s.predicates, func(task Task) bool {
		return strings.Contains(strings.ToLower(task.Text), needle)
	})
	return s
}

// Results returns the matching tasks in list order.
func (s *TaskScan) Results() []Task {
	var results []Task
	for _, task := range s.state.Tasks() {
		if s.match(task) {
			results = append(results, task)
		}
	}
	return results
}

func (s *TaskScan) match(task Task) bool {
	for _, match := range s.predicates {
		if !match(task) {
			return false
		}
	}
	return true
}

func (s *State) SearchTasks() *TaskScan {
	return &TaskScan{
		state: s,
	}
}
