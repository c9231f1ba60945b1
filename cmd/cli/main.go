// Package main provides the icons-cli tool.
//
//	icons-cli resolve --file companies.json
//	icons-cli resolve Apple=https://www.apple.com --local
//	icons-cli llm-usage --site https://www.apple.com
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fleveque/company-icons/internal/client"
	"github.com/fleveque/company-icons/internal/config"
	"github.com/fleveque/company-icons/internal/model"
	"github.com/fleveque/company-icons/internal/server"
	"github.com/fleveque/company-icons/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "icons-cli",
		Short: "Company icon lookup tools",
	}

	root.AddCommand(resolveCmd())
	root.AddCommand(llmUsageCmd())
	return root
}

func resolveCmd() *cobra.Command {
	var (
		serverURL string
		chunkSize int
		local     bool
		file      string
		format    string
	)

	cmd := &cobra.Command{
		Use:   "resolve [name=url ...]",
		Short: "Find icons for a list of companies",
		Long: "Sends companies to a running server in chunks, or resolves them in-process with --local.\n" +
			"Companies come from --file (a JSON list) and/or name=url arguments.",
		RunE: func(cmd *cobra.Command, args []string) error {
			companies, err := loadCompanies(file, args)
			if err != nil {
				return err
			}
			if len(companies) == 0 {
				return errors.New("no companies given: use --file or name=url arguments")
			}

			var results []model.CompanyWithIcon
			if local {
				results, err = resolveLocal(cmd.Context(), companies)
			} else {
				c := client.New(serverURL, &http.Client{Timeout: 5 * time.Minute}, client.WithChunkSize(chunkSize))
				results, err = c.ResolveAll(cmd.Context(), companies)
			}
			// Partial results are still worth printing when some chunks failed.
			if results != nil {
				if perr := printResults(cmd.OutOrStdout(), results, format); perr != nil {
					return perr
				}
			}
			return err
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "http://localhost:8000", "Base URL of a running company-icons server")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", client.DefaultChunkSize, "Companies per request")
	cmd.Flags().BoolVar(&local, "local", false, "Resolve in-process instead of calling a server")
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file with companies")
	cmd.Flags().StringVar(&format, "format", "pretty", "Output format: pretty|json")
	return cmd
}

// resolveLocal runs the same pipeline the server uses, without metrics.
// Like POST /get_icons, one invalid URL rejects the whole batch.
func resolveLocal(ctx context.Context, companies []model.Company) ([]model.CompanyWithIcon, error) {
	if err := validateCompanies(companies); err != nil {
		return nil, err
	}

	cfg, err := config.Load(os.Getenv("ICONS_CONFIG_PATH"))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	cfg.Metrics.Enabled = false

	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	deps, closeDeps, err := server.BuildDeps(cfg, logger)
	if err != nil {
		return nil, err
	}
	defer func() { _ = closeDeps() }()

	items := deps.IconService.ResolveBatch(ctx, companies)
	results := make([]model.CompanyWithIcon, len(items))
	for i, item := range items {
		results[i] = item.Response()
	}
	return results, ctx.Err()
}

func llmUsageCmd() *cobra.Command {
	var site string

	cmd := &cobra.Command{
		Use:   "llm-usage",
		Short: "Show recorded LLM calls",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(os.Getenv("ICONS_CONFIG_PATH"))
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if cfg.Storage.DatabasePath == "" {
				return errors.New("storage.database_path is not set")
			}
			if err := os.MkdirAll(filepath.Dir(cfg.Storage.DatabasePath), 0755); err != nil {
				return fmt.Errorf("creating database directory: %w", err)
			}

			db, err := storage.NewDatabase(cfg.Storage.DatabasePath)
			if err != nil {
				return err
			}
			defer db.Close()

			return printLLMUsage(cmd.Context(), cmd.OutOrStdout(), storage.NewLLMCallRepository(db), site)
		},
	}

	cmd.Flags().StringVar(&site, "site", "", "Only show calls for this company URL")
	return cmd
}
