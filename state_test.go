package dailytasks_test

import (
	"testing"
	"time"

	"github.com/nicolagi/dailytasks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddTaskRejectsBlankText(t *testing.T) {
	state := dailytasks.NewState()
	var notified int
	state.Subscribe(func(dailytasks.Document) { notified++ })

	for _, text := range []string{"", "   ", "\t\n"} {
		_, ok := state.AddTask(text)
		assert.False(t, ok, "%q", text)
	}
	assert.Empty(t, state.Tasks())
	assert.Equal(t, 0, notified)
}

func TestAddTaskTrimsAndAppends(t *testing.T) {
	state := dailytasks.NewState()
	first, ok := state.AddTask("  buy milk ")
	require.True(t, ok)
	second, ok := state.AddTask("call mum")
	require.True(t, ok)

	assert.Equal(t, "buy milk", first.Text)
	assert.False(t, first.Done)
	assert.True(t, second.ID > first.ID)
	assert.Equal(t, []dailytasks.Task{first, second}, state.Tasks())
}

func TestToggleTaskTwiceRestoresDone(t *testing.T) {
	state := dailytasks.NewState()
	task, _ := state.AddTask("write report")

	require.True(t, state.ToggleTask(task.ID))
	toggled, _ := state.TaskByID(task.ID)
	assert.True(t, toggled.Done)

	require.True(t, state.ToggleTask(task.ID))
	restored, _ := state.TaskByID(task.ID)
	assert.Equal(t, task, restored)
}

func TestUnknownIDsAreNoOps(t *testing.T) {
	state := dailytasks.NewState()
	task, _ := state.AddTask("water plants")
	before := state.Snapshot()
	var notified int
	state.Subscribe(func(dailytasks.Document) { notified++ })

	assert.False(t, state.ToggleTask(task.ID+1))
	assert.False(t, state.DeleteTask(task.ID+1))
	assert.Equal(t, before, state.Snapshot())
	assert.Equal(t, 0, notified)
}

func TestDeleteTaskKeepsOrder(t *testing.T) {
	state := dailytasks.NewState()
	a, _ := state.AddTask("a")
	b, _ := state.AddTask("b")
	c, _ := state.AddTask("c")
	snapshot := state.Snapshot()

	require.True(t, state.DeleteTask(b.ID))
	assert.Equal(t, []dailytasks.Task{a, c}, state.Tasks())
	// Earlier snapshots are not affected.
	assert.Equal(t, []dailytasks.Task{a, b, c}, snapshot.Tasks)
}

func TestClearDone(t *testing.T) {
	state := dailytasks.NewState()
	a, _ := state.AddTask("a")
	b, _ := state.AddTask("b")
	state.ToggleTask(a.ID)

	assert.Equal(t, 1, state.ClearDone())
	assert.Equal(t, []dailytasks.Task{b}, state.Tasks())
	assert.Equal(t, 0, state.ClearDone())
}

func TestSetFocus(t *testing.T) {
	state := dailytasks.NewState()
	assert.Equal(t, dailytasks.DefaultWeeklyFocus(), state.Focus())

	require.True(t, state.SetFocus(time.Monday, "Deep work"))
	focus := state.Focus()
	assert.Len(t, focus, dailytasks.DaysPerWeek)
	assert.Equal(t, "Deep work", focus[time.Monday])
	assert.Equal(t, "Sunday", focus[time.Sunday])

	require.True(t, state.SetFocus(time.Monday, "  "))
	assert.Equal(t, "Monday", state.Focus()[time.Monday])

	assert.False(t, state.SetFocus(time.Weekday(7), "nope"))
	assert.False(t, state.SetFocus(time.Weekday(-1), "nope"))
	for day, label := range state.Focus() {
		assert.NotEmpty(t, label, "day %d", day)
	}
}

func TestReplaceAllOverwritesAndNotifies(t *testing.T) {
	state := dailytasks.NewState()
	state.AddTask("local")
	var got []dailytasks.Document
	state.Subscribe(func(doc dailytasks.Document) { got = append(got, doc) })

	tasks := []dailytasks.Task{{ID: 10, Text: "remote", Done: true}, {ID: 11, Text: "other"}}
	focus := dailytasks.DefaultWeeklyFocus()
	focus[time.Friday] = "Review"
	state.ReplaceAll(tasks, focus)

	want := dailytasks.Document{Tasks: tasks, WeeklyFocus: focus}
	assert.Equal(t, want, state.Snapshot())
	require.Len(t, got, 1)
	assert.Equal(t, want, got[0])
}

func TestReplaceAllDropsDuplicateIDs(t *testing.T) {
	state := dailytasks.NewState()
	state.ReplaceAll([]dailytasks.Task{{ID: 5, Text: "first"}, {ID: 5, Text: "second"}}, dailytasks.DefaultWeeklyFocus())
	assert.Equal(t, []dailytasks.Task{{ID: 5, Text: "first"}}, state.Tasks())
}

func TestSearchTasks(t *testing.T) {
	state := dailytasks.NewState()
	milk, _ := state.AddTask("Buy milk")
	bread, _ := state.AddTask("buy bread")
	report, _ := state.AddTask("Write report")
	state.ToggleTask(bread.ID)
	bread.Done = true

	assert.Equal(t, []dailytasks.Task{milk, report}, state.SearchTasks().WithDone(false).Results())
	assert.Equal(t, []dailytasks.Task{milk, bread}, state.SearchTasks().WithText("BUY").Results())
	assert.Equal(t, []dailytasks.Task{milk}, state.SearchTasks().WithText("buy").WithDone(true).Not().Results())
	assert.Empty(t, state.SearchTasks().WithText("nothing").Results())
}
