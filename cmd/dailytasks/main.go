package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nicolagi/dailytasks"
	"github.com/nicolagi/dailytasks/sqlitestore"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// app is what every command operates on. It is set up by the root command's PersistentPreRunE.
var app struct {
	cfg         *config
	state       *dailytasks.State
	coordinator *dailytasks.Coordinator
	closer      io.Closer
}

var (
	dirFlag    string
	outputFlag string
)

var rootCmd = &cobra.Command{
	Use:   "dailytasks",
	Short: "A daily task list, optionally backed up to a GitHub gist",
	Long: `dailytasks keeps a short list of things to do today, and a focus label for
each day of the week.

Data is kept locally. Once a GitHub token and a gist id are configured with
"dailytasks login", the list is pulled from the gist on every run and pushed
back after every change. The last writer wins.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: teardown,
	RunE:              runList,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dirFlag, "dir", "", "data and config directory (default $XDG_CONFIG_HOME/dailytasks)")
	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", "", "output format: text, json or yaml")
	addCommands(rootCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(dirFlag)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if outputFlag != "" {
		cfg.Output = outputFlag
	}
	setupLogging(cfg)
	app.cfg = cfg
	app.closer = nil

	store := mustCreateStore(cfg)
	app.state = dailytasks.NewState()
	app.coordinator = newCoordinator(cfg, app.state, store)
	if err := app.coordinator.Start(context.Background()); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	// Wait for the initial pull, otherwise it could overwrite the change this command is about to make.
	app.coordinator.Wait()
	return nil
}

func newCoordinator(cfg *config, state *dailytasks.State, store *dailytasks.Store) *dailytasks.Coordinator {
	clientOpts := []dailytasks.ClientOption{dailytasks.WithEndpoint(cfg.Endpoint)}
	if cfg.WireLog != "" {
		clientOpts = append(clientOpts, dailytasks.WithWireLog(absolute(cfg, cfg.WireLog)))
	}
	return dailytasks.NewCoordinator(state, store,
		dailytasks.WithStatusWindow(cfg.StatusWindow),
		dailytasks.WithClientOptions(clientOpts...),
	)
}

func teardown(cmd *cobra.Command, args []string) {
	app.coordinator.Wait()
	if label := app.coordinator.Status().Label(); label != "" {
		fmt.Fprintln(os.Stderr, label)
	}
	if app.closer != nil {
		if err := app.closer.Close(); err != nil {
			log.WithField("cause", err).Warning("Could not close local store")
		}
	}
}

func absolute(cfg *config, pathname string) string {
	if filepath.IsAbs(pathname) {
		return pathname
	}
	return filepath.Join(cfg.Dir, pathname)
}

func mustCreateStore(cfg *config) *dailytasks.Store {
	logEntry := log.WithFields(log.Fields{
		"dir":   cfg.Dir,
		"store": cfg.Store,
	})
	switch cfg.Store {
	case "sqlite":
		backend, err := sqlitestore.Open(filepath.Join(cfg.Dir, appName+".db"))
		if err != nil {
			logEntry.WithField("cause", err).Fatal("Could not open local database")
		}
		app.closer = backend
		return dailytasks.NewStore(backend)
	case "file", "":
		backend, err := dailytasks.NewFileBackend(filepath.Join(cfg.Dir, "data"))
		if err != nil {
			logEntry.WithField("cause", err).Fatal("Could not create data directory")
		}
		return dailytasks.NewStore(backend)
	default:
		logEntry.Fatal("Unknown store, expected file or sqlite")
		return nil
	}
}
