package commands

import (
	"github.com/bootnotify/internal/boot"
	"github.com/bootnotify/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewRootCommand builds the boot-notify command tree. Running the root
// command sends the boot notification.
func NewRootCommand() *cobra.Command {
	v := config.NewViper()

	cmd := &cobra.Command{
		Use:   "boot-notify",
		Short: "Email the operator when this device has booted",
		Long: `boot-notify is run once per boot by the service manager. It reads the
bot settings INI, logs the boot and emails a notification to the configured
recipient. Positional arguments that name no subcommand are ignored.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return boot.Run(cmd.Context(), boot.Options{
				ConfigPath: config.ResolvePath(v),
				Stdout:     cmd.OutOrStdout(),
			})
		},
	}

	cmd.PersistentFlags().StringP(config.PathKey, "i", config.DefaultPath, "Override default INI path.")
	_ = v.BindPFlag(config.PathKey, cmd.PersistentFlags().Lookup(config.PathKey))

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return &boot.ExitError{Code: 2, Err: err}
	})

	// Add subcommands
	cmd.AddCommand(newHistoryCommand(v))
	cmd.AddCommand(newClearLogCommand(v))

	return cmd
}

func loadSettings(v *viper.Viper) (*config.Settings, error) {
	return boot.LoadSettings(config.ResolvePath(v))
}
