package dailytasks

import (
	"strings"
	"sync"
	"time"
)

// Document is the unit that is persisted locally and mirrored to the gist: the whole task list together with the
// weekly focus. It is always read and written as one value.
type Document struct {
	Tasks       []Task      `json:"tasks"`
	WeeklyFocus WeeklyFocus `json:"weeklyFocus"`
}

// NewDocument returns the document of a fresh installation: no tasks, every day labelled with its name.
func NewDocument() Document {
	return Document{
		Tasks:       []Task{},
		WeeklyFocus: DefaultWeeklyFocus(),
	}
}

func (d Document) clone() Document {
	tasks := make([]Task, len(d.Tasks))
	copy(tasks, d.Tasks)
	return Document{Tasks: tasks, WeeklyFocus: d.WeeklyFocus}
}

// State holds the task list and the weekly focus. It is only modified through its methods; each method that
// changes something notifies the subscribers, synchronously and while still holding the state's lock, with a
// snapshot of the new state. Subscribers must therefore not call back into the State.
type State struct {
	mu          sync.Mutex
	doc         Document
	version     uint64 // Incremented on every change.
	subscribers []func(Document)
}

func NewState() *State {
	return &State{doc: NewDocument()}
}

// Subscribe registers fn to be called after every change.
func (s *State) Subscribe(fn func(Document)) {
	s.mu.Lock()
	s.subscribers = append(s.subscribers, fn)
	s.mu.Unlock()
}

func (s *State) notify() {
	s.version++
	for _, fn := range s.subscribers {
		fn(s.doc.clone())
	}
}

// AddTask appends a new, not done task. The text is trimmed; blank text is rejected and ok is false.
func (s *State) AddTask(text string) (task Task, ok bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Task{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	task = Task{ID: NewTaskID(), Text: text}
	s.doc.Tasks = append(s.doc.Tasks, task)
	s.notify()
	return task, true
}

// ToggleTask flips the done flag of the task with the given id. It returns false, and changes nothing, if there
// is no such task.
func (s *State) ToggleTask(id TaskID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.doc.Tasks {
		if s.doc.Tasks[i].ID == id {
			s.doc.Tasks[i].Done = !s.doc.Tasks[i].Done
			s.notify()
			return true
		}
	}
	return false
}

// DeleteTask removes the task with the given id. Unknown ids are ignored.
func (s *State) DeleteTask(id TaskID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.doc.Tasks {
		if s.doc.Tasks[i].ID == id {
			s.doc.Tasks = append(s.doc.Tasks[:i:i], s.doc.Tasks[i+1:]...)
			s.notify()
			return true
		}
	}
	return false
}

// ClearDone removes all done tasks in a single change and returns how many were removed.
func (s *State) ClearDone() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := make([]Task, 0, len(s.doc.Tasks))
	for _, task := range s.doc.Tasks {
		if !task.Done {
			kept = append(kept, task)
		}
	}
	removed := len(s.doc.Tasks) - len(kept)
	if removed > 0 {
		s.doc.Tasks = kept
		s.notify()
	}
	return removed
}

// SetFocus sets the label for a day (0 is Sunday). A blank label restores the day's name. Days out of range are
// ignored and false is returned.
func (s *State) SetFocus(day time.Weekday, label string) bool {
	if day < 0 || int(day) >= DaysPerWeek {
		return false
	}
	if strings.TrimSpace(label) == "" {
		label = day.String()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc.WeeklyFocus[day] == label {
		return true
	}
	s.doc.WeeklyFocus[day] = label
	s.notify()
	return true
}

// ReplaceAll overwrites the whole state. Should the tasks contain the same id more than once, only the first
// occurrence is kept.
func (s *State) ReplaceAll(tasks []Task, focus WeeklyFocus) {
	kept := dedupTasks(tasks)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = Document{Tasks: kept, WeeklyFocus: focus}
	s.notify()
}

// replaceAllAt is like ReplaceAll, but only if nothing changed since currentVersion returned version.
func (s *State) replaceAllAt(version uint64, tasks []Task, focus WeeklyFocus) bool {
	kept := dedupTasks(tasks)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.version != version {
		return false
	}
	s.doc = Document{Tasks: kept, WeeklyFocus: focus}
	s.notify()
	return true
}

func (s *State) currentVersion() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

func dedupTasks(tasks []Task) []Task {
	seen := make(map[TaskID]bool, len(tasks))
	kept := make([]Task, 0, len(tasks))
	for _, task := range tasks {
		if seen[task.ID] {
			continue
		}
		seen[task.ID] = true
		ObserveTaskID(task.ID)
		kept = append(kept, task)
	}
	return kept
}

// Snapshot returns a copy of the current state.
func (s *State) Snapshot() Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.clone()
}

// Tasks returns a copy of the task list, in insertion order.
func (s *State) Tasks() []Task {
	return s.Snapshot().Tasks
}

func (s *State) Focus() WeeklyFocus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.WeeklyFocus
}

// TaskByID looks up a task by id.
func (s *State) TaskByID(id TaskID) (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, task := range s.doc.Tasks {
		if task.ID == id {
			return task, true
		}
	}
	return Task{}, false
}
