package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nicolagi/dailytasks"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"gopkg.in/yaml.v3"
)

// Monday first, as the week is usually planned.
var weekOrder = [dailytasks.DaysPerWeek]time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday,
}

type taskView struct {
	ID   string `json:"id" yaml:"id"`
	Text string `json:"text" yaml:"text"`
	Done bool   `json:"done" yaml:"done"`
	Age  string `json:"age" yaml:"age"`
}

type listView struct {
	Day   string     `json:"day" yaml:"day"`
	Focus string     `json:"focus" yaml:"focus"`
	Tasks []taskView `json:"tasks" yaml:"tasks"`
}

type dayView struct {
	Day   string `json:"day" yaml:"day"`
	Focus string `json:"focus" yaml:"focus"`
	Today bool   `json:"today,omitempty" yaml:"today,omitempty"`
}

func newTaskView(now time.Time, task dailytasks.Task) taskView {
	return taskView{
		ID:   task.ID.String(),
		Text: task.Text,
		Done: task.Done,
		Age:  relativeDurationFormat(now.Sub(task.ID.Created())),
	}
}

func relativeDurationFormat(d time.Duration) string {
	var buf bytes.Buffer
	t := d / (24 * time.Hour)
	if t != 0 {
		fmt.Fprintf(&buf, "%dd", t)
	}
	d -= t * 24 * time.Hour
	t = d / time.Hour
	if t != 0 {
		fmt.Fprintf(&buf, "%dh", t)
	}
	d -= t * time.Hour
	if buf.Len() == 0 {
		t = d / time.Minute
		if t != 0 {
			fmt.Fprintf(&buf, "%dm", t)
		}
	}
	return buf.String()
}

func printList(w io.Writer, format string, now time.Time, tasks []dailytasks.Task, focus dailytasks.WeeklyFocus) error {
	view := listView{
		Day:   now.Weekday().String(),
		Focus: focus.Today(now),
		Tasks: []taskView{},
	}
	for _, task := range tasks {
		view.Tasks = append(view.Tasks, newTaskView(now, task))
	}
	switch format {
	case "json", "yaml":
		return encode(w, format, view)
	case "text", "":
		_, _ = fmt.Fprintf(w, "%s: %s\n", view.Day, view.Focus)
		return printTasks(w, now, tasks)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func printTasks(w io.Writer, now time.Time, tasks []dailytasks.Task) error {
	for _, task := range tasks {
		v := newTaskView(now, task)
		mark := "[ ]"
		if v.Done {
			mark = "[x]"
		}
		_, _ = fmt.Fprintf(w, "%v\t%v\t%v\t%v\n", v.ID, mark, v.Age, v.Text)
	}
	return nil
}

func printWeek(w io.Writer, format string, now time.Time, focus dailytasks.WeeklyFocus) error {
	var days []dayView
	for _, day := range weekOrder {
		days = append(days, dayView{
			Day:   day.String(),
			Focus: focus[day],
			Today: day == now.Weekday(),
		})
	}
	switch format {
	case "json", "yaml":
		return encode(w, format, days)
	case "text", "":
		for _, d := range days {
			marker := ""
			if d.Today {
				marker = " *"
			}
			_, _ = fmt.Fprintf(w, "%v\t%v%v\n", d.Day, d.Focus, marker)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func encode(w io.Writer, format string, v interface{}) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var dateParser = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// parseDay accepts a day index (0 is Sunday), a day name, a prefix of at least three letters of a day name, or
// a relative date such as "tomorrow", in which case the weekday is computed from now.
func parseDay(s string, now time.Time) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n >= dailytasks.DaysPerWeek {
			return 0, fmt.Errorf("day %d out of range 0-6", n)
		}
		return time.Weekday(n), nil
	}
	if len(s) >= 3 {
		for day := time.Sunday; day <= time.Saturday; day++ {
			if strings.HasPrefix(strings.ToLower(day.String()), s) {
				return day, nil
			}
		}
	}
	if s != "" {
		r, err := dateParser.Parse(s, now)
		if err != nil {
			return 0, fmt.Errorf("%q: %w", s, err)
		}
		if r != nil {
			return r.Time.Weekday(), nil
		}
	}
	return 0, fmt.Errorf("unknown day %q", s)
}

// maskToken hides all but the last four characters of a token.
func maskToken(token string) string {
	if len(token) <= 4 {
		return strings.Repeat("*", len(token))
	}
	return strings.Repeat("*", len(token)-4) + token[len(token)-4:]
}
