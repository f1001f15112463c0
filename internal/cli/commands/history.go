package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/bootnotify/internal/config"
	"github.com/bootnotify/internal/database"
	"github.com/bootnotify/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newHistoryCommand(v *viper.Viper) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:     "history",
		Short:   "List recorded boots",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(v)
			if err != nil {
				return err
			}

			dbPath, ok := settings.HistoryPath()
			if !ok {
				return fmt.Errorf("boot history is not configured: set db_path in [%s]", config.SectionHistory)
			}

			store, err := database.Open(dbPath)
			if err != nil {
				return fmt.Errorf("failed to open boot history: %v", err)
			}
			defer store.Close()

			events, err := store.RecentBoots(limit)
			if err != nil {
				return fmt.Errorf("failed to list boots: %v", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "RUN\tDEVICE\tNAME\tBOOTED\tRECIPIENT\tEMAIL\tSLACK")

			for _, e := range events {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					shortID(e.RunID),
					e.Device,
					e.Name,
					e.BootedAt.UTC().Format(logger.TimeLayout),
					e.Recipient,
					e.EmailStatus,
					e.SlackStatus,
				)
			}

			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", database.DefaultLimit, "Maximum number of boots to show")

	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
