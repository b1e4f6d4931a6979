package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tagresolver/pkg/config"
	"github.com/matzehuels/tagresolver/pkg/resolve"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached resolutions",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear OWNER/REPO VERSION",
		Short: "Drop the cached resolution of one version spec",
		Long: `Drop the cached resolution of VERSION for OWNER/REPO from the configured
cache backend, positive or negative. The next request resolves upstream.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := resolve.ParseRepo(args[0])
			if err != nil {
				return err
			}
			spec := args[1]

			ctx := cmd.Context()
			cfg := c.settings()
			store, err := openStore(ctx, cfg.Cache)
			if err != nil {
				return fmt.Errorf("open %s cache: %w", cfg.Cache.Backend, err)
			}
			defer store.Close()

			svc := resolve.NewService(resolve.ServiceConfig{
				Cache:  resolve.NewCache(store),
				Logger: c.Logger,
			})
			if err := svc.Forget(ctx, repo.Owner, repo.Name, spec); err != nil {
				return err
			}

			printSuccess("Cleared %s %s", repo, spec)
			printDetail("Backend: %s", cfg.Cache.Backend)
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the file cache directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.settings()
			if cfg.Cache.Backend != config.BackendFile {
				printWarning("cache backend is %s, not file", cfg.Cache.Backend)
			}
			dir := cfg.Cache.Dir
			if dir == "" {
				d, err := cacheDir()
				if err != nil {
					return fmt.Errorf("get cache dir: %w", err)
				}
				dir = d
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}
