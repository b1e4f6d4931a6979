package cli

import (
	"github.com/spf13/cobra"
)

// configCommand creates the config command.
func (c *CLI) configCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML",
		Long: `Print the configuration after defaults, the --config file and TAGRESOLVER_*
environment variables have been applied. Secrets are redacted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.settings()
			allow, err := cfg.AllowList()
			if err != nil {
				return err
			}
			c.Logger.Debug("allow-list", "entries", allow.Len())
			return cfg.Redacted().Encode(cmd.OutOrStdout())
		},
	}
}
