package commands

import (
	"fmt"

	"github.com/bootnotify/internal/boot"
	"github.com/bootnotify/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newClearLogCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear-log",
		Short: "Remove the run log file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(v)
			if err != nil {
				return err
			}

			lg := boot.NewLogger(settings.Logging, boot.Options{Stdout: cmd.OutOrStdout()})
			if lg.LogFile() == "" {
				return fmt.Errorf("no log file configured in [%s]", config.SectionLogging)
			}

			lg.RemoveLogs()
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", lg.LogFile())
			return nil
		},
	}

	return cmd
}
