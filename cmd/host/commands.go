package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"formbridge/internal/di"
	"formbridge/internal/domain/privacy"
	"formbridge/internal/infrastructure/dom/htmldoc"
	"formbridge/internal/infrastructure/logger"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the relay answers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(cmd, func(ctx context.Context, c *di.HostContainer) error {
			version, err := c.Relay.Ping(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("relay %s\n", version)
			return nil
		})
	},
}

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Capture the form schema of the active tab",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(cmd, func(ctx context.Context, c *di.HostContainer) error {
			schema, err := c.Assistant.Capture(ctx)
			if err != nil {
				return err
			}
			return printJSON(schema)
		})
	},
}

var proposalFile string

var fillCmd = &cobra.Command{
	Use:   "fill",
	Short: "Fill the selected capture with personal data",
	Long: `Fill builds a token proposal for the selected capture (or reads one from
--proposal), substitutes personal data on this machine and sends the values
to the relay. Fields without a value are listed, never guessed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(cmd, func(ctx context.Context, c *di.HostContainer) error {
			var proposal privacy.TokenFill
			if proposalFile != "" {
				p, err := readProposal(proposalFile)
				if err != nil {
					return err
				}
				proposal = p
			} else {
				schema, err := c.Assistant.Selected(ctx)
				if err != nil {
					return err
				}
				proposal, err = c.Assistant.Propose(ctx, schema)
				if err != nil {
					return err
				}
			}

			summary, err := c.Assistant.Fill(ctx, proposal)
			if err != nil {
				return err
			}
			fmt.Println(summary.String())
			return nil
		})
	},
}

// readProposal reads a {"fieldId": "TOKEN"} object.
func readProposal(path string) (privacy.TokenFill, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read proposal: %w", err)
	}
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode proposal: %w", err)
	}
	out := make(privacy.TokenFill, len(raw))
	for field, s := range raw {
		tok, err := privacy.ParseToken(s)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", field, err)
		}
		out[field] = tok
	}
	return out, nil
}

var (
	historySelect int
	historyRemove int
	historyClear  bool
	historyStored bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List, select or remove recent captures",
	Long: `Without --stored, history works on the relay's recent captures by index
(0 is the newest). With --stored it works on the captures persisted on this
machine by id. Either selection decides what fill uses next.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		selecting := cmd.Flags().Changed("select")
		removing := cmd.Flags().Changed("remove")

		return withContainer(cmd, func(ctx context.Context, c *di.HostContainer) error {
			if historyStored {
				switch {
				case selecting:
					schema, err := c.Assistant.SelectStored(ctx, int64(historySelect))
					if err != nil {
						return err
					}
					return printJSON(schema)
				case removing:
					return c.Assistant.RemoveStored(ctx, int64(historyRemove))
				}
				return listStored(ctx, c)
			}

			switch {
			case historyClear:
				return c.Relay.ClearLastCapture(ctx)
			case selecting:
				schema, err := c.Assistant.SelectCapture(ctx, historySelect)
				if err != nil {
					return err
				}
				return printJSON(schema)
			case removing:
				return c.Relay.RemoveCapture(ctx, historyRemove)
			}

			entries, err := c.Relay.Captures(ctx)
			if err != nil {
				return err
			}
			for i, e := range entries {
				fmt.Printf("%d  #%d  %s  %s\n", i, e.Seq, e.Schema.URL, e.Schema.Title)
			}
			return nil
		})
	},
}

func listStored(ctx context.Context, c *di.HostContainer) error {
	if c.Store == nil {
		return fmt.Errorf("CAPTURE_DB is not set")
	}
	stored, err := c.Store.List(ctx)
	if err != nil {
		return err
	}
	for _, s := range stored {
		mark := " "
		if s.Selected {
			mark = "*"
		}
		fmt.Printf("%s %d  %s  %s\n", mark, s.ID, s.Schema.URL, s.Schema.Title)
	}
	return nil
}

var (
	captureFileURL       string
	captureFileTemplates string
)

var captureFileCmd = &cobra.Command{
	Use:   "capture-file <path>",
	Short: "Capture the form schema of a saved HTML page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read page: %w", err)
		}

		pageURL := captureFileURL
		if pageURL == "" {
			abs, err := filepath.Abs(path)
			if err != nil {
				return err
			}
			pageURL = "file://" + filepath.ToSlash(abs)
		}

		log, err := logger.NewLoggerAdapter(logger.Config{
			Name:  "capture-file",
			Level: envService.GetWithDefault("LOG_LEVEL", "warn"),
		})
		if err != nil {
			return err
		}
		defer log.Close()

		script, err := di.ContentScript(captureFileTemplates, envService.GetBool("FILL_ALLOW_SELECTORS", true), log)
		if err != nil {
			return err
		}

		doc, err := htmldoc.Parse(pageURL, string(raw))
		if err != nil {
			return err
		}
		schema, err := script.Capture(cmd.Context(), doc)
		if err != nil {
			return err
		}
		return printJSON(schema)
	},
}

func init() {
	fillCmd.Flags().BoolVar(&ask, "ask", false, "Ask for personal data missing from the record")
	fillCmd.Flags().StringVar(&proposalFile, "proposal", "", "JSON file with a field -> token proposal")

	historyCmd.Flags().IntVar(&historySelect, "select", 0, "Make the capture at this index (or stored id) current")
	historyCmd.Flags().IntVar(&historyRemove, "remove", 0, "Remove the capture at this index (or stored id)")
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "Clear the current capture")
	historyCmd.Flags().BoolVar(&historyStored, "stored", false, "Work on captures persisted on this machine")

	captureFileCmd.Flags().StringVar(&captureFileURL, "url", "", "URL the page was saved from, used for template matching")
	captureFileCmd.Flags().StringVar(&captureFileTemplates, "templates", "", "Template library file (default: embedded)")
}
