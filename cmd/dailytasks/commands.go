package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/nicolagi/dailytasks"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var errNotFound = errors.New("task not found")

var (
	listAll    bool
	listDone   bool
	listSearch string

	loginToken     string
	loginTokenFile string
	loginGist      string
)

func addCommands(root *cobra.Command) {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List today's tasks (the default command)",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}
	listCmd.Flags().BoolVarP(&listAll, "all", "a", false, "include done tasks")
	listCmd.Flags().BoolVar(&listDone, "done", false, "only list done tasks")
	listCmd.Flags().StringVarP(&listSearch, "search", "s", "", "only list tasks containing this text")

	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Configure the GitHub token and gist to sync with, then pull from the gist",
		Long: `Configure sync with a GitHub gist.

Create a token with the "gist" scope, then a private gist containing a file
named tasks.json, and pass the gist id (the hash at the end of its URL).

The token is read from --token, from the file given by --token-file (which
must not be readable by group or others), or else from standard input, without
echoing it if that is a terminal.`,
		Args: cobra.NoArgs,
		RunE: runLogin,
	}
	loginCmd.Flags().StringVar(&loginToken, "token", "", "GitHub personal access token")
	loginCmd.Flags().StringVar(&loginTokenFile, "token-file", "", "file containing the GitHub token")
	loginCmd.Flags().StringVar(&loginGist, "gist", "", "gist id")
	_ = loginCmd.MarkFlagRequired("gist")

	root.AddCommand(
		listCmd,
		&cobra.Command{
			Use:   "add TEXT...",
			Short: "Add a task",
			Args:  cobra.MinimumNArgs(1),
			RunE:  runAdd,
		},
		&cobra.Command{
			Use:     "done ID",
			Aliases: []string{"toggle"},
			Short:   "Mark a task done, or not done if it already is",
			Args:    cobra.ExactArgs(1),
			RunE:    runToggle,
		},
		&cobra.Command{
			Use:     "rm ID",
			Aliases: []string{"delete"},
			Short:   "Delete a task",
			Args:    cobra.ExactArgs(1),
			RunE:    runDelete,
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Delete all done tasks",
			Args:  cobra.NoArgs,
			RunE:  runClear,
		},
		&cobra.Command{
			Use:   "focus [DAY [LABEL...]]",
			Short: "Show or set the focus of a day (today by default); an empty label restores the day's name",
			Args:  cobra.ArbitraryArgs,
			RunE:  runFocus,
		},
		&cobra.Command{
			Use:   "week",
			Short: "Show the focus of every day of the week",
			Args:  cobra.NoArgs,
			RunE:  runWeek,
		},
		loginCmd,
		&cobra.Command{
			Use:   "logout",
			Short: "Stop syncing and forget the token",
			Args:  cobra.NoArgs,
			RunE:  runLogout,
		},
		&cobra.Command{
			Use:   "sync",
			Short: "Pull from the gist again, replacing local data if the gist has any",
			Args:  cobra.NoArgs,
			RunE:  runSync,
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show sync configuration and status",
			Args:  cobra.NoArgs,
			RunE:  runStatus,
		},
	)
}

func runList(cmd *cobra.Command, args []string) error {
	scan := app.state.SearchTasks()
	switch {
	case listDone:
		scan.WithDone(true)
	case !listAll:
		scan.WithDone(false)
	}
	if listSearch != "" {
		scan.WithText(listSearch)
	}
	return printList(cmd.OutOrStdout(), app.cfg.Output, time.Now(), scan.Results(), app.state.Focus())
}

func runAdd(cmd *cobra.Command, args []string) error {
	task, ok := app.state.AddTask(strings.Join(args, " "))
	if !ok {
		return errors.New("add: the task text is blank")
	}
	return printTasks(cmd.OutOrStdout(), time.Now(), []dailytasks.Task{task})
}

func runToggle(cmd *cobra.Command, args []string) error {
	id, err := dailytasks.ParseTaskID(args[0])
	if err != nil {
		return fmt.Errorf("done: %q: %w", args[0], err)
	}
	if !app.state.ToggleTask(id) {
		return fmt.Errorf("done: %v: %w", id, errNotFound)
	}
	task, _ := app.state.TaskByID(id)
	return printTasks(cmd.OutOrStdout(), time.Now(), []dailytasks.Task{task})
}

func runDelete(cmd *cobra.Command, args []string) error {
	id, err := dailytasks.ParseTaskID(args[0])
	if err != nil {
		return fmt.Errorf("rm: %q: %w", args[0], err)
	}
	if !app.state.DeleteTask(id) {
		return fmt.Errorf("rm: %v: %w", id, errNotFound)
	}
	return nil
}

func runClear(cmd *cobra.Command, args []string) error {
	n := app.state.ClearDone()
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d done task(s)\n", n)
	return nil
}

func runFocus(cmd *cobra.Command, args []string) error {
	now := time.Now()
	day := now.Weekday()
	if len(args) > 0 {
		var err error
		if day, err = parseDay(args[0], now); err != nil {
			return fmt.Errorf("focus: %w", err)
		}
	}
	if len(args) > 1 {
		app.state.SetFocus(day, strings.Join(args[1:], " "))
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", day, app.state.Focus()[day])
	return nil
}

func runWeek(cmd *cobra.Command, args []string) error {
	return printWeek(cmd.OutOrStdout(), app.cfg.Output, time.Now(), app.state.Focus())
}

func runLogin(cmd *cobra.Command, args []string) error {
	token, err := readToken(cmd)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	creds := dailytasks.Credentials{Token: token, DocumentID: strings.TrimSpace(loginGist)}
	if !creds.Complete() {
		return fmt.Errorf("login: %w", dailytasks.ErrNoCredentials)
	}
	if err := app.coordinator.SetCredentials(creds); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	app.coordinator.Wait()
	if app.coordinator.Status() == dailytasks.Failed {
		return errors.New("login: could not pull from the gist, check the token and gist id")
	}
	return nil
}

func readToken(cmd *cobra.Command) (string, error) {
	if loginToken != "" {
		return strings.TrimSpace(loginToken), nil
	}
	if loginTokenFile != "" {
		return readTokenFile(loginTokenFile)
	}
	_, _ = fmt.Fprint(cmd.ErrOrStderr(), "GitHub token: ")
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func readTokenFile(tokenFile string) (string, error) {
	logEntry := log.WithField("path", tokenFile)
	fi, err := os.Stat(tokenFile)
	if err != nil {
		return "", err
	}
	if fi.Mode()&0077 != 0 {
		logEntry.WithFields(log.Fields{
			"got":  fmt.Sprintf("%#o", fi.Mode().Perm()),
			"want": fmt.Sprintf("%#o", fi.Mode().Perm()&0700),
		}).Warning("Stricter permissions required")
		return "", fmt.Errorf("%s: token file is accessible by group or others", tokenFile)
	}
	b, err := os.ReadFile(tokenFile)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	return app.coordinator.ClearCredentials()
}

func runSync(cmd *cobra.Command, args []string) error {
	if !app.coordinator.Enabled() {
		return errors.New("sync: not configured, use login first")
	}
	app.coordinator.Sync()
	app.coordinator.Wait()
	if app.coordinator.Status() == dailytasks.Failed {
		return errors.New("sync failed")
	}
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	creds := app.coordinator.Credentials()
	if !app.coordinator.Enabled() {
		_, _ = fmt.Fprintln(w, "Sync: disabled")
		return nil
	}
	_, _ = fmt.Fprintf(w, "Sync: %s\n", app.coordinator.Status())
	_, _ = fmt.Fprintf(w, "Gist: %s\n", creds.DocumentID)
	_, _ = fmt.Fprintf(w, "Token: %s\n", maskToken(creds.Token))
	return nil
}
