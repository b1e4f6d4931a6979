package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	errs "github.com/matzehuels/tagresolver/pkg/errors"
	"github.com/matzehuels/tagresolver/pkg/integrations/github"
	"github.com/matzehuels/tagresolver/pkg/resolve"
)

// resolveTimeout bounds a single CLI resolution, pagination included.
const resolveTimeout = 2 * time.Minute

// resolveCommand creates the resolve command.
func (c *CLI) resolveCommand() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "resolve OWNER/REPO VERSION",
		Short: "Resolve a version spec to a release tag",
		Long: `Resolve VERSION for OWNER/REPO and print the tag on stdout.

VERSION is a dotted prefix such as "2" or "2.1", "latest" for the release
GitHub marks as latest, or "main".

By default the request goes through the allow-list and the configured cache,
exactly as the server would handle it. --no-cache asks GitHub directly and
skips the allow-list.`,
		Example: `  tagresolver resolve cli/cli 2.1
  tagresolver resolve golang/go latest --no-cache`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := resolve.ParseRepo(args[0])
			if err != nil {
				return err
			}
			return c.runResolve(cmd, repo, args[1], noCache)
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "query GitHub directly, bypassing cache and allow-list")
	return cmd
}

func (c *CLI) runResolve(cmd *cobra.Command, repo resolve.Repo, spec string, noCache bool) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), resolveTimeout)
	defer cancel()
	cfg := c.settings()
	logger := loggerFromContext(ctx).With("repo", repo, "spec", spec)
	prog := newProgress(logger)

	spinner := newSpinnerWithContext(ctx, cmd.ErrOrStderr(), fmt.Sprintf("Resolving %s %s...", repo, spec))
	spinner.Start()

	var (
		tag string
		err error
	)
	if noCache {
		if err = errs.ValidateVersionSpec(spec); err == nil {
			r := resolve.NewResolver(github.NewClient(github.Config{
				Token:   cfg.GitHub.Token,
				BaseURL: cfg.GitHub.BaseURL,
				Timeout: cfg.GitHub.Timeout.Duration,
			}))
			tag, err = r.Resolve(ctx, repo, spec)
		}
		if errors.Is(err, resolve.ErrNotFound) {
			err = errs.Wrap(errs.ErrCodeVersionNotFound, err, "no release of %s matches %q", repo, spec)
		}
	} else {
		svc, store, serr := newService(ctx, cfg, logger)
		if serr != nil {
			spinner.Stop()
			return serr
		}
		defer store.Close()
		tag, err = svc.Handle(ctx, repo.Owner, repo.Name, spec)
	}
	spinner.Stop()

	if err != nil {
		return err
	}

	prog.done(fmt.Sprintf("Resolved %s %s", repo, spec))
	fmt.Fprintln(cmd.OutOrStdout(), tag)
	return nil
}
