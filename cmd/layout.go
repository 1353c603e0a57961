package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/msalah0e/ontoview/internal/config"
	"github.com/msalah0e/ontoview/internal/session"
	"github.com/msalah0e/ontoview/internal/store"
	"github.com/msalah0e/ontoview/internal/ui"
)

// sessionOptions converts the config into session options. Timers are off;
// callers that want a live loop set the intervals themselves.
func sessionOptions(cfg *config.Config, name string) session.Options {
	opts := session.DefaultOptions()
	opts.Name = name
	opts.Layout = cfg.LayoutParams()
	opts.Camera = cfg.CameraParams()
	opts.Viewport = cfg.ViewportSize()
	opts.TickInterval = 0
	opts.FrameInterval = 0
	return opts
}

func layoutCmd() *cobra.Command {
	var ticks int
	var format string
	var output string
	var save bool
	var width, height float64

	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Run the force layout headlessly and print node positions",
		Long: `Run the force layout headlessly and print node positions.

With --ticks 0 the simulation runs until it settles. With --save the
positions are restored from and written back to the layout store, so
repeated runs continue where the last one stopped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			markup, name, err := readOntology(cfg)
			if err != nil {
				return err
			}

			opts := sessionOptions(cfg, name)
			if width > 0 && height > 0 {
				opts.Viewport.Width, opts.Viewport.Height = width, height
			}
			if save {
				st, err := openStore(cfg)
				if err != nil {
					return fmt.Errorf("opening layout store: %w", err)
				}
				defer st.Close()
				opts.Store = st
			}

			sess := session.New(opts)
			defer sess.Close()

			start := time.Now()
			if err := sess.Load(markup); err != nil {
				record("layout", name, err, "")
				return err
			}
			limit := ticks
			if limit <= 0 {
				limit = 10000
			}
			ran, err := sess.RunTicks(limit)
			if err != nil {
				return err
			}
			f := sess.Snapshot()
			record("layout", name, nil, fmt.Sprintf("%d ticks", ran))

			out := os.Stdout
			if output != "" {
				file, err := os.Create(output)
				if err != nil {
					return err
				}
				defer file.Close()
				out = file
			}

			switch format {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(f); err != nil {
					return err
				}
			case "svg":
				if _, err := fmt.Fprint(out, f.SVG()); err != nil {
					return err
				}
			case "table":
				ui.Banner("layout")
				var rows [][]string
				for _, n := range f.Nodes {
					pin := ""
					if n.Pinned {
						pin = "pinned"
					}
					rows = append(rows, []string{n.Label, string(n.Kind), fmt.Sprintf("%8.1f", n.X), fmt.Sprintf("%8.1f", n.Y), pin})
				}
				ui.Table([]string{"Label", "Kind", "X", "Y", ""}, rows)
				fmt.Println()
				fmt.Printf("  %d ticks in %s, alpha %.4f", ran, time.Since(start).Round(time.Millisecond), f.Alpha)
				if f.Settled {
					fmt.Printf(" %s settled", ui.StatusIcon(true))
				}
				fmt.Println()
			default:
				return fmt.Errorf("unknown format %q (want table, json or svg)", format)
			}

			if output != "" {
				ui.Good.Printf("  %s Wrote %s\n", ui.StatusIcon(true), output)
			}
			if save {
				ui.Subtle.Printf("  Layout saved as %s\n", store.Digest(markup)[:12])
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&ticks, "ticks", "t", 0, "Ticks to run (0 = until settled)")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table, json or svg")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to file instead of stdout")
	cmd.Flags().BoolVar(&save, "save", false, "Restore and persist positions in the layout store")
	cmd.Flags().Float64Var(&width, "width", 0, "Viewport width (default from config)")
	cmd.Flags().Float64Var(&height, "height", 0, "Viewport height (default from config)")
	return cmd
}

func layoutsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layouts",
		Short: "List saved layouts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			snaps, err := st.ListLayouts()
			if err != nil {
				return err
			}
			ui.Banner("saved layouts")
			if len(snaps) == 0 {
				fmt.Println("  No layouts saved yet.")
				fmt.Println("  Run `ontoview layout --save` or `ontoview serve` to save one")
				return nil
			}
			var rows [][]string
			for _, s := range snaps {
				rows = append(rows, []string{s.Digest[:12], s.Name, fmt.Sprintf("%d", s.NodeCount), s.SavedAt.Local().Format("Jan 02 15:04")})
			}
			ui.Table([]string{"Digest", "Name", "Nodes", "Saved"}, rows)
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <digest>",
		Short: "Delete a saved layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			digest, err := resolveDigest(st, args[0])
			if err == nil {
				err = st.DeleteLayout(digest)
			}
			record("layouts rm", args[0], err, "")
			if err != nil {
				return err
			}
			ui.Good.Printf("  %s Deleted layout %s\n", ui.StatusIcon(true), digest[:12])
			return nil
		},
	})
	return cmd
}

// resolveDigest expands a unique digest prefix.
func resolveDigest(st store.Storer, prefix string) (string, error) {
	snaps, err := st.ListLayouts()
	if err != nil {
		return "", err
	}
	var match string
	for _, s := range snaps {
		if len(prefix) <= len(s.Digest) && s.Digest[:len(prefix)] == prefix {
			if match != "" {
				return "", fmt.Errorf("digest prefix %q is ambiguous", prefix)
			}
			match = s.Digest
		}
	}
	if match == "" {
		return "", fmt.Errorf("%s: %w", prefix, store.ErrNotFound)
	}
	return match, nil
}
