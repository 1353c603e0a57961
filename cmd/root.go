package cmd

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/msalah0e/ontoview/internal/activity"
	"github.com/msalah0e/ontoview/internal/assist"
	"github.com/msalah0e/ontoview/internal/config"
	"github.com/msalah0e/ontoview/internal/graph"
	"github.com/msalah0e/ontoview/internal/ontology"
	"github.com/msalah0e/ontoview/internal/store"
	"github.com/msalah0e/ontoview/internal/ui"
)

var version = "0.3.0"

const samplePath = "sample/research.owl"

var (
	sampleFS embed.FS
	fileFlag string
	verbose  bool
	noColor  bool
)

// SetSampleFS sets the embedded filesystem holding the bundled sample ontology.
func SetSampleFS(fs embed.FS) {
	sampleFS = fs
}

var rootCmd = &cobra.Command{
	Use:   "ontoview",
	Short: "ontoview — explore OWL ontologies as a force-directed graph",
	Long: ui.Brand.Sprint(ui.Mark+" ontoview") + " — explore OWL ontologies as a force-directed graph\n" +
		ui.Subtle.Sprint("Inspect, search, lay out and serve RDF/XML ontologies"),
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		ui.SetColor(cfg.UI.Color && !noColor && os.Getenv("NO_COLOR") == "")
	},
}

func init() {
	rootCmd.SetVersionTemplate("ontoview {{ .Version }}\n")
	rootCmd.PersistentFlags().StringVarP(&fileFlag, "file", "f", "", "Ontology file (RDF/XML); defaults to the configured sample")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		inspectCmd(),
		showCmd(),
		searchCmd(),
		layoutCmd(),
		layoutsCmd(),
		docsCmd(),
		queryCmd(),
		askCmd(),
		exportCmd(),
		serveCmd(),
		configCmd(),
		promptsCmd(),
		modelsCmd(),
		historyCmd(),
		completionCmd(),
	)
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		ui.Bad.Fprintf(os.Stderr, "  %v\n", err)
	}
	return err
}

// loadConfig reads and validates the config file.
func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", config.Path(), err)
	}
	return cfg, nil
}

// readOntology returns the document to display and a display name for it.
// Precedence: --file, then the configured sample, then the bundled sample.
func readOntology(cfg *config.Config) (markup, name string, err error) {
	path := fileFlag
	if path == "" {
		path = cfg.Sample
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", "", err
		}
		return string(data), filepath.Base(path), nil
	}
	data, err := sampleFS.ReadFile(samplePath)
	if err != nil {
		return "", "", fmt.Errorf("bundled sample: %w", err)
	}
	return string(data), filepath.Base(samplePath), nil
}

// ontologyPath returns the on-disk document, if any.
func ontologyPath(cfg *config.Config) string {
	if fileFlag != "" {
		return fileFlag
	}
	return cfg.Sample
}

// loadModel reads and ingests the current document.
func loadModel(cfg *config.Config) (*graph.Model, string, error) {
	markup, name, err := readOntology(cfg)
	if err != nil {
		return nil, "", err
	}
	m, err := ontology.Ingest(markup)
	if err != nil {
		return nil, name, fmt.Errorf("%s: %w", name, err)
	}
	return m, name, nil
}

// newLogger returns the structured logger used by long-running components.
// --verbose lowers the level to debug.
func newLogger(level zapcore.Level) *zap.Logger {
	zc := zap.NewProductionConfig()
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.DisableStacktrace = true
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		zc.Level = zap.NewAtomicLevelAt(level)
	}
	l, err := zc.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// openStore opens the layout store, or an in-memory one when persistence is off.
func openStore(cfg *config.Config) (store.Storer, error) {
	if !cfg.Store.Enabled {
		return store.NewMemStore(), nil
	}
	st, err := store.OpenSQLiteStore(cfg.StorePath())
	if err != nil {
		return nil, err
	}
	return st, nil
}

// newAssistant builds the configured backend with its key from the environment.
func newAssistant(cfg *config.Config, logger *zap.Logger) (assist.Assistant, error) {
	a := cfg.Assistant
	return assist.New(assist.Options{
		Backend:    a.Backend,
		Model:      a.Model,
		Endpoint:   a.Endpoint,
		APIKey:     os.Getenv(a.APIKeyEnv),
		MaxContext: a.MaxContext,
		Timeout:    time.Duration(a.TimeoutS) * time.Second,
	}, logger)
}

// record appends to the activity history; failures never block a command.
func record(action, target string, err error, details string) {
	if err != nil {
		_ = activity.LogError(action, target, err)
		return
	}
	_ = activity.Log(action, target, details)
}
