// Package cmd wires the booksly command tree.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"booksly/catalog"
	"booksly/collections"
	"booksly/config"
	"booksly/engagement"
	"booksly/insights"
	"booksly/logging"
	"booksly/store"
	"booksly/users"
)

var configPath string

// app bundles the shared handle and the services built on it.
type app struct {
	cfg *config.Config
	log *logrus.Logger
	st  *store.Store

	users       *users.Service
	catalog     *catalog.Service
	engagement  *engagement.Service
	collections *collections.Service
	insights    *insights.Engine
}

func newApp() (*app, error) {
	// A missing .env is fine; it's a local convenience.
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logging.New(cfg.Log.Level)

	st, err := store.Open(cfg.Storage.Path, cfg.Storage.BusyTimeoutMS)
	if err != nil {
		return nil, err
	}

	cat := catalog.New(st)

	return &app{
		cfg:         cfg,
		log:         log,
		st:          st,
		users:       users.New(st),
		catalog:     cat,
		engagement:  engagement.New(st, cat),
		collections: collections.New(st, cat),
		insights:    insights.New(st),
	}, nil
}

func (a *app) close() {
	if err := a.st.Close(); err != nil {
		a.log.WithError(err).Error("closing store")
	}
}

var rootCmd = &cobra.Command{
	Use:           "booksly",
	Short:         "Social book tracking: follows, ratings, reading sessions, collections",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runREPL()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yml", "configuration file")
	rootCmd.AddCommand(replCmd)
	rootCmd.AddCommand(seedCmd)
}

// Execute runs the command tree.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
