package main

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/sirosfoundation/go-soapws/internal/config"
	"github.com/sirosfoundation/go-soapws/pkg/journal"
)

var errNoJournal = errors.New("no persistent journal configured (journal.type must be 'mongodb')")

type journalListFlags struct {
	Destination string
	Outcome     string
	Since       time.Duration
	Limit       int
}

func newJournalCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect the exchange journal",
	}

	var flags journalListFlags
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded exchanges, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := &journal.Filter{
				Destination: flags.Destination,
				Outcome:     flags.Outcome,
				Limit:       flags.Limit,
			}
			if flags.Since > 0 {
				since := time.Now().Add(-flags.Since)
				filter.Since = &since
			}
			return c.withJournal(cmd, func(store journal.Store) (any, error) {
				return store.List(cmd.Context(), filter)
			})
		},
	}
	listCmd.Flags().StringVar(&flags.Destination, "destination", "", "only exchanges sent to this URI")
	listCmd.Flags().StringVar(&flags.Outcome, "outcome", "", "only exchanges with this outcome")
	listCmd.Flags().DurationVar(&flags.Since, "since", 0, "only exchanges started within this period")
	listCmd.Flags().IntVarP(&flags.Limit, "limit", "n", 50, "maximum number of entries")

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one recorded exchange",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withJournal(cmd, func(store journal.Store) (any, error) {
				entry, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return nil, err
				}
				return struct {
					*journal.Entry
					Request  string `json:"request,omitempty"`
					Response string `json:"response,omitempty"`
				}{entry, string(entry.Request), string(entry.Response)}, nil
			})
		},
	}

	cmd.AddCommand(listCmd, showCmd)
	return cmd
}

func (c *cli) withJournal(cmd *cobra.Command, fn func(journal.Store) (any, error)) error {
	if c.config.Journal.Type != config.JournalMongoDB {
		return errNoJournal
	}

	ctx := cmd.Context()
	store, closer, err := newJournalStore(ctx, c.config.Journal)
	if err != nil {
		return err
	}
	defer func() {
		if err := closer(ctx); err != nil {
			c.logger.Warn("failed to close journal", "error", err)
		}
	}()

	result, err := fn(store)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
