package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/msalah0e/ontoview/internal/config"
	"github.com/msalah0e/ontoview/internal/server"
	"github.com/msalah0e/ontoview/internal/session"
	"github.com/msalah0e/ontoview/internal/ui"
	"github.com/msalah0e/ontoview/internal/watch"
)

func requestLogPath() string {
	return filepath.Join(config.ConfigDir(), "requests.jsonl")
}

func serveCmd() *cobra.Command {
	var port int
	var watchFile bool
	var open bool
	var noLog bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the interactive viewer over HTTP",
		Long: `Serve the interactive viewer over HTTP.

The layout runs in the server and streams frames to the browser over a
websocket. With --watch the ontology file is reloaded whenever it changes;
a file that fails to parse leaves the current view in place.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			path := ontologyPath(cfg)
			if watchFile && path == "" {
				return errors.New("--watch needs --file or a configured sample path")
			}
			markup, name, err := readOntology(cfg)
			if err != nil {
				return err
			}

			logger := newLogger(zap.InfoLevel)
			defer logger.Sync()

			st, err := openStore(cfg)
			if err != nil {
				return fmt.Errorf("opening layout store: %w", err)
			}
			defer st.Close()

			assistant, err := newAssistant(cfg, logger.Named("assist"))
			if err != nil {
				return err
			}

			opts := sessionOptions(cfg, name)
			opts.TickInterval = cfg.TickInterval()
			opts.FrameInterval = cfg.FrameInterval()
			opts.Store = st
			opts.Assistant = assistant
			opts.Logger = logger.Named("session")
			sess := session.New(opts)
			defer sess.Close()

			if err := sess.Load(markup); err != nil {
				record("serve", name, err, "")
				return err
			}

			srvCfg := server.Config{
				Port:           cfg.Server.Port,
				AllowedOrigins: cfg.Server.AllowedOrigins,
				Title:          name,
				Version:        version,
			}
			if !noLog {
				srvCfg.LogFile = requestLogPath()
			}
			srv := server.New(sess, srvCfg, logger.Named("http"))

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			g, ctx := errgroup.WithContext(ctx)

			g.Go(func() error { return srv.Run(ctx) })
			if watchFile {
				w, err := watch.New(path, sess, watch.WithLogger(logger.Named("watch")))
				if err != nil {
					return err
				}
				w.Prime(markup)
				g.Go(func() error { return w.Run(ctx) })
			}

			url := fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
			ui.Banner("serving " + name)
			fmt.Printf("  %s  %s\n", ui.Brand.Sprintf("%-8s", "Viewer"), url)
			fmt.Printf("  %s  %s/metrics\n", ui.Brand.Sprintf("%-8s", "Metrics"), url)
			if watchFile {
				fmt.Printf("  %s  %s\n", ui.Brand.Sprintf("%-8s", "Watching"), path)
			}
			fmt.Println()
			ui.Subtle.Println("  Press Ctrl+C to stop")
			record("serve", name, nil, url)

			if open {
				_ = openBrowser(url)
			}

			err = g.Wait()
			if err != nil {
				return err
			}
			fmt.Println()
			ui.Good.Printf("  %s Stopped, layout saved\n", ui.StatusIcon(true))
			return nil
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8765, "Port to listen on (default from config)")
	cmd.Flags().BoolVarP(&watchFile, "watch", "w", false, "Reload the ontology file when it changes")
	cmd.Flags().BoolVar(&open, "open", false, "Open the viewer in a browser")
	cmd.Flags().BoolVar(&noLog, "no-request-log", false, "Do not write the JSONL request log")

	cmd.AddCommand(serveLogsCmd())
	return cmd
}

func serveLogsCmd() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent requests handled by the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logs, err := server.ReadLogs(requestLogPath(), count)
			if err != nil {
				return err
			}
			if len(logs) == 0 {
				fmt.Println("  No requests logged yet.")
				return nil
			}
			ui.Banner("request log")
			var rows [][]string
			for _, l := range logs {
				rows = append(rows, []string{
					l.Timestamp.Local().Format("Jan 02 15:04:05"),
					l.Method,
					l.Path,
					fmt.Sprintf("%d", l.Status),
					fmt.Sprintf("%.1fms", l.Duration),
				})
			}
			ui.Table([]string{"Time", "Method", "Path", "Status", "Duration"}, rows)
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 20, "Number of entries to show")
	return cmd
}
