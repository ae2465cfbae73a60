// The dailytasks program manages a daily task list and a weekly focus from the command line.
//
// Without arguments it lists today's open tasks, preceded by today's focus. Task ids are printed in the first
// column and are what the done and rm commands expect. Run with -h for the list of commands.
//
// Configuration is read from config.yaml in the data directory ($XDG_CONFIG_HOME/dailytasks unless --dir is
// given), and can be overridden by DAILYTASKS_* environment variables, e.g., DAILYTASKS_LOG_LEVEL=debug. The
// recognized keys are endpoint, status_window, store (file or sqlite), wire_log, output (text, json or yaml),
// and log.file, log.level, log.max_size_mb, log.max_backups.
//
// To sync with a GitHub gist, create a private gist and a token with the gist scope, then run
//
//	dailytasks login --gist GIST_ID --token-file PATH
//
// The token file must not be accessible by group or others. From then on the gist is pulled every time the
// program starts and pushed after every change; the last writer wins.
package main // import "github.com/nicolagi/dailytasks/cmd/dailytasks"
