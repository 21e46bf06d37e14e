package main

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/everstacklabs/modelsync/internal/adapter"
	_ "github.com/everstacklabs/modelsync/internal/adapter/providers/cloudflare" // register Cloudflare AI Gateway adapter
	_ "github.com/everstacklabs/modelsync/internal/adapter/providers/openrouter" // register OpenRouter adapter
	_ "github.com/everstacklabs/modelsync/internal/adapter/providers/vercel"     // register Vercel adapter
	"github.com/everstacklabs/modelsync/internal/cache"
	"github.com/everstacklabs/modelsync/internal/catalog"
	"github.com/everstacklabs/modelsync/internal/config"
	"github.com/everstacklabs/modelsync/internal/diff"
	"github.com/everstacklabs/modelsync/internal/filter"
	"github.com/everstacklabs/modelsync/internal/httpclient"
	"github.com/everstacklabs/modelsync/internal/logging"
	"github.com/everstacklabs/modelsync/internal/pipeline"
	"github.com/everstacklabs/modelsync/internal/validate"
)

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:           "modelsync",
		Short:         "Model catalog synchronizer",
		Long:          "Fetches provider model lists and reconciles them into the on-disk model catalog.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	rootCmd.AddCommand(
		syncCmd(),
		diffCmd(),
		discoverCmd(),
		validateCmd(),
		orphansCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(pipeline.ExitCodeFor(err))
	}
}

func syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch, reconcile and write the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			applyRunFlags(cmd, cfg)

			opts, err := runOptions(cmd)
			if err != nil {
				return err
			}

			if err := configureAdapters(cfg); err != nil {
				return err
			}

			p := pipeline.New(cfg, opts...)
			report, err := p.Sync(cmd.Context())
			if err != nil {
				return err
			}

			for _, r := range report.Results {
				if r.ChangeSet != nil {
					fmt.Println(diff.RenderDiffSummary(r.ChangeSet))
				}
			}

			c := report.Counts()
			fmt.Printf("\ncreated=%d updated=%d unchanged=%d skipped=%d orphaned=%d deleted=%d\n",
				c.Created, c.Updated, c.Unchanged, c.Skipped, c.Orphaned, c.Deleted)

			if report.PRNumber > 0 {
				slog.Info("PR created", "pr", report.PRNumber, "draft", report.PRDraft, "url", report.PRURL)
			}

			if err := report.Err(); err != nil {
				os.Exit(pipeline.ExitCodeFor(err))
			}
			return nil
		},
	}

	cmd.Flags().Bool("dry-run", false, "Show what would change without writing")
	cmd.Flags().Bool("new-only", false, "Only add new models; leave existing records and orphans untouched")
	cmd.Flags().Bool("open-pr", false, "Commit the changes and open a pull request")
	addSelectionFlags(cmd)

	return cmd
}

func diffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Show what would change (no writes)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			applyRunFlags(cmd, cfg)

			opts, err := runOptions(cmd)
			if err != nil {
				return err
			}

			if err := configureAdapters(cfg); err != nil {
				return err
			}

			p := pipeline.New(cfg, opts...)
			changesets, diffErr := p.Diff(cmd.Context())

			hasChanges := false
			for _, cs := range changesets {
				fmt.Println(diff.RenderDiffSummary(&cs))
				if cs.HasChanges() {
					hasChanges = true
				}
			}

			if diffErr != nil {
				os.Exit(pipeline.ExitCodeFor(diffErr))
			}
			if hasChanges {
				os.Exit(pipeline.ExitChanges)
			}
			return nil
		},
	}

	cmd.Flags().Bool("new-only", false, "Report as if existing records were left untouched")
	addSelectionFlags(cmd)

	return cmd
}

func discoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Fetch one provider and print its models",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if err := configureAdapters(cfg); err != nil {
				return err
			}

			provider, _ := cmd.Flags().GetString("provider")
			a, err := adapter.Get(provider)
			if err != nil {
				return err
			}

			records, err := a.Discover(cmd.Context())
			if err != nil {
				return err
			}

			f := filter.New(a.Profile().Filter)
			for _, r := range records {
				res := f.Classify(r.ID)
				price := "-"
				if r.Pricing != nil {
					price = fmt.Sprintf("$%g/$%g", r.Pricing.Input, r.Pricing.Output)
				}
				fmt.Printf("%-60s %-9s %-16s %10d %s\n", r.ID, res.Decision, res.Reason, r.Limits.Context, price)
			}

			fmt.Printf("\nTotal: %d models\n", len(records))
			return nil
		},
	}

	cmd.Flags().String("provider", "", "Provider to discover models from")
	_ = cmd.MarkFlagRequired("provider")

	return cmd
}

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate existing catalog (CI check)",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalogPath, _ := cmd.Flags().GetString("catalog-path")
			if catalogPath == "" {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				catalogPath = cfg.CatalogPath
			}

			cat, err := catalog.Load(catalogPath)
			if err != nil {
				return fmt.Errorf("loading catalog: %w", err)
			}

			result := validate.ValidateCatalog(cat)
			fmt.Println(validate.FormatResult(result))

			if result.HasErrors() {
				os.Exit(pipeline.ExitFailure)
			}
			return nil
		},
	}

	cmd.Flags().String("catalog-path", "", "Path to model catalog (default: from config)")

	return cmd
}

func orphansCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orphans",
		Short: "List catalog records the providers no longer report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			applyRunFlags(cmd, cfg)

			if err := configureAdapters(cfg); err != nil {
				return err
			}

			orphans, orphanErr := pipeline.New(cfg).Orphans(cmd.Context())

			providers := make([]string, 0, len(orphans))
			for name := range orphans {
				providers = append(providers, name)
			}
			sort.Strings(providers)

			for _, name := range providers {
				for _, id := range orphans[name] {
					fmt.Printf("%s/%s\n", name, id)
				}
			}

			if orphanErr != nil {
				os.Exit(pipeline.ExitCodeFor(orphanErr))
			}
			return nil
		},
	}

	cmd.Flags().StringSlice("providers", nil, "Providers to check (default: all configured)")

	return cmd
}

func addSelectionFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("providers", nil, "Providers to sync (default: all configured)")
	cmd.Flags().String("date", "", "Run date stamped on records, YYYY-MM-DD (default: today, UTC)")
}

// applyRunFlags overrides config values with flags set on the command line.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("dry-run") {
		cfg.DryRun, _ = flags.GetBool("dry-run")
	}
	if flags.Changed("new-only") {
		cfg.NewOnly, _ = flags.GetBool("new-only")
	}
	if flags.Changed("open-pr") {
		cfg.OpenPR, _ = flags.GetBool("open-pr")
	}
	if flags.Changed("providers") {
		cfg.Providers, _ = flags.GetStringSlice("providers")
	}
}

func runOptions(cmd *cobra.Command) ([]pipeline.Option, error) {
	date, _ := cmd.Flags().GetString("date")
	if date == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return nil, fmt.Errorf("--date: %w", err)
	}
	return []pipeline.Option{pipeline.WithRunDate(t)}, nil
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := logging.Setup(cfg.LogLevel, cfg.LogFormat); err != nil {
		return nil, fmt.Errorf("configuring logging: %w", err)
	}
	return cfg, nil
}

// configureAdapters applies profile overrides and hands every HTTP-backed
// adapter the shared client.
func configureAdapters(cfg *config.Config) error {
	if cfg.ProfilesFile != "" {
		if err := adapter.ApplyProfiles(cfg.ProfilesFile); err != nil {
			return fmt.Errorf("loading provider profiles: %w", err)
		}
	}

	// Set up cache
	var fileCache *cache.FileCache
	if !cfg.NoCache {
		ttl, err := time.ParseDuration(cfg.CacheTTL)
		if err != nil {
			ttl = time.Hour
		}
		fc, err := cache.New(cfg.CacheDir, ttl)
		if err != nil {
			slog.Warn("failed to create cache, continuing without", "error", err)
		} else {
			fileCache = fc
			if n, err := fc.Purge(7 * 24 * time.Hour); err == nil && n > 0 {
				slog.Debug("cache entries purged", "count", n)
			}
		}
	}

	// Set up HTTP client
	var opts []httpclient.Option
	if cfg.RateLimit > 0 {
		opts = append(opts, httpclient.WithRateLimit(cfg.RateLimit))
	}
	if fileCache != nil {
		opts = append(opts, httpclient.WithCache(fileCache))
	}
	if cfg.NoCache {
		opts = append(opts, httpclient.WithNoCache())
	}
	client := httpclient.New(opts...)

	for _, name := range adapter.List() {
		a, err := adapter.Get(name)
		if err != nil {
			continue
		}
		if c, ok := a.(interface{ Configure(*httpclient.Client) }); ok {
			c.Configure(client)
		}
	}
	return nil
}
