package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the program with args against dir, with flags back at their defaults, and returns its output.
func execute(t *testing.T, dir string, args ...string) string {
	t.Helper()
	dirFlag, outputFlag = "", ""
	listAll, listDone, listSearch = false, false, ""
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append([]string{"--dir", dir}, args...))
	defer rootCmd.SetOut(nil)
	require.NoError(t, rootCmd.Execute(), strings.Join(args, " "))
	return out.String()
}

func TestAddDoneList(t *testing.T) {
	for _, store := range []string{"file", "sqlite"} {
		t.Run(store, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store: "+store+"\n"), 0600))

			out := execute(t, dir, "add", "water", "the", "plants")
			fields := strings.Split(out, "\t")
			require.Len(t, fields, 4, out)
			id := fields[0]
			assert.Equal(t, "water the plants\n", fields[3])
			execute(t, dir, "add", "call Bob")

			out = execute(t, dir, "done", id)
			assert.Contains(t, out, "[x]")

			var view listView
			require.NoError(t, json.Unmarshal([]byte(execute(t, dir, "list", "--all", "-o", "json")), &view))
			require.Len(t, view.Tasks, 2)
			assert.Equal(t, id, view.Tasks[0].ID)
			assert.True(t, view.Tasks[0].Done)
			assert.Equal(t, "call Bob", view.Tasks[1].Text)
			assert.False(t, view.Tasks[1].Done)

			require.NoError(t, json.Unmarshal([]byte(execute(t, dir, "-o", "json")), &view))
			require.Len(t, view.Tasks, 1)
			assert.Equal(t, "call Bob", view.Tasks[0].Text)
		})
	}
}

func TestFocusAndStatus(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, "Wednesday\tWriting\n", execute(t, dir, "focus", "wed", "Writing"))
	assert.Contains(t, execute(t, dir, "week"), "Wednesday\tWriting")
	assert.Equal(t, "Wednesday\tWednesday\n", execute(t, dir, "focus", "3", ""))
	assert.Equal(t, "Sync: disabled\n", execute(t, dir, "status"))
}
