package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/msalah0e/ontoview/internal/assist"
	"github.com/msalah0e/ontoview/internal/ui"
)

func queryCmd() *cobra.Command {
	var examples bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "query <class expression>",
		Short: "Evaluate a DL class expression with the assistant",
		Long: `Evaluate a description-logic class expression against the ontology.

The configured assistant answers with the matching subclasses and instances.
The built-in stub resolves a single class name by walking subClassOf links;
set [assistant] backend = "gemini" for full expressions.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if examples {
				return nil
			}
			return cobra.MinimumNArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if examples {
				printExamples("query examples", assist.DLExamples)
				return nil
			}
			reply, err := complete(strings.Join(args, " "), assist.ModeQuery)
			if err != nil {
				return err
			}
			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(reply)
			}
			printResult(reply)
			return nil
		},
	}

	cmd.Flags().BoolVar(&examples, "examples", false, "List example expressions")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the structured result as JSON")
	return cmd
}

func askCmd() *cobra.Command {
	var examples bool

	cmd := &cobra.Command{
		Use:     "ask <question>",
		Aliases: []string{"chat"},
		Short:   "Ask the assistant a question about the ontology",
		Args: func(cmd *cobra.Command, args []string) error {
			if examples {
				return nil
			}
			return cobra.MinimumNArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if examples {
				printExamples("chat examples", assist.ChatExamples)
				return nil
			}
			reply, err := complete(strings.Join(args, " "), assist.ModeChat)
			if err != nil {
				return err
			}
			fmt.Println()
			fmt.Println(reply.Text)
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().BoolVar(&examples, "examples", false, "List example questions")
	return cmd
}

func complete(input string, mode assist.Mode) (*assist.Reply, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	markup, name, err := readOntology(cfg)
	if err != nil {
		return nil, err
	}
	logger := newLogger(zap.WarnLevel)
	defer logger.Sync()

	a, err := newAssistant(cfg, logger)
	if err != nil {
		return nil, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	reply, err := a.Complete(ctx, assist.Request{Ontology: markup, Input: input, Mode: mode})
	record(string(mode), name, err, input)
	if err != nil {
		return nil, err
	}
	return reply, nil
}

func printExamples(title string, examples []string) {
	ui.Banner(title)
	for _, e := range examples {
		fmt.Printf("  %s %s\n", ui.Subtle.Sprint("•"), e)
	}
	fmt.Println()
}

func printResult(reply *assist.Reply) {
	if reply.Result == nil {
		fmt.Println(reply.Text)
		return
	}
	r := reply.Result
	fmt.Println()
	section := func(title string, items []string) {
		fmt.Printf("  %s %s\n", ui.Brand.Sprint(title), ui.Subtle.Sprintf("(%d)", len(items)))
		if len(items) == 0 {
			fmt.Printf("    %s\n", ui.Subtle.Sprint("none"))
		}
		for _, it := range items {
			fmt.Printf("    %s\n", it)
		}
		fmt.Println()
	}
	section("Subclasses", r.Subclasses)
	section("Instances", r.Instances)
	if r.Explanation != "" {
		fmt.Printf("  %s\n\n", ui.Info.Sprint(r.Explanation))
	}
}
