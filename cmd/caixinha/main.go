package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"
	"github.com/subosito/gotenv"

	"github.com/caixinha-dev/caixinha/pkg/config"
	"github.com/caixinha-dev/caixinha/pkg/importer"
	"github.com/caixinha-dev/caixinha/pkg/models"
	"github.com/caixinha-dev/caixinha/pkg/plan"
	"github.com/caixinha-dev/caixinha/pkg/report"
	"github.com/caixinha-dev/caixinha/pkg/store"
)

var (
	cfgFile string
	debug   bool

	flagUser      string
	flagCategory  string
	flagSubtype   string
	flagSource    string
	flagStrategy  string
	flagLocale    string
	flagDelimiter string
	flagHasHeader bool
	flagDateCol   string
	flagDescCol   string
	flagAmountCol string
	flagCSVReport bool
)

var rootCmd = &cobra.Command{
	Use:   "caixinha",
	Short: "Bank statement importer",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

var importCmd = &cobra.Command{
	Use:   "import [flags] <statement_file>",
	Short: "Import one CSV or OFX statement",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		imp, err := buildImporter(cmd, logger)
		if err != nil {
			return err
		}

		req := models.ImportRequest{
			UserID:     flagUser,
			CategoryID: flagCategory,
			Subtype:    flagSubtype,
			SourceID:   flagSource,
			Strategy:   models.DuplicateStrategy(flagStrategy),
			CSV: models.CSVOptions{
				Delimiter:         flagDelimiter,
				HasHeader:         flagHasHeader,
				DateColumn:        flagDateCol,
				DescriptionColumn: flagDescCol,
				AmountColumn:      flagAmountCol,
				Locale:            flagLocale,
			},
		}

		return runImport(cmd.Context(), imp, args[0], req, logger)
	},
}

var planCmd = &cobra.Command{
	Use:   "plan <plan_file>",
	Short: "Import every statement listed in a YAML plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		imp, err := buildImporter(cmd, logger)
		if err != nil {
			return err
		}

		p, err := plan.Load(args[0])
		if err != nil {
			return err
		}

		for _, st := range p.Statements {
			req := p.Resolve(st)
			if err := runImport(cmd.Context(), imp, st.File, req, logger); err != nil {
				logger.Error("statement failed", "file", st.File, "err", err)
			}
		}
		return nil
	},
}

func runImport(ctx context.Context, imp *importer.Importer, path string, req models.ImportRequest, logger *log.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading statement %s: %w", path, err)
	}

	resp, err := imp.Run(ctx, data, filepath.Base(path), req)
	if err != nil {
		return err
	}

	if debug {
		pp.Println(resp)
	}
	if flagCSVReport {
		os.Stdout.Write(report.CSV(resp))
	} else {
		fmt.Println(report.Summary(filepath.Base(path), resp))
	}
	return nil
}

func newLogger() *log.Logger {
	opts := log.Options{
		ReportTimestamp: true,
		Prefix:          "caixinha",
	}
	if debug {
		opts.Level = log.DebugLevel
		opts.ReportCaller = true
	}
	return log.NewWithOptions(os.Stderr, opts)
}

func buildImporter(cmd *cobra.Command, logger *log.Logger) (*importer.Importer, error) {
	cfg, err := config.Build(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	st, err := store.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(cmd.Context()); err != nil {
		return nil, err
	}
	return importer.New(st, st, logger), nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Verbose logging and response dump")

	importCmd.Flags().StringVar(&flagUser, "user", "", "Owner user id")
	importCmd.Flags().StringVar(&flagCategory, "category", "", "Default category id")
	importCmd.Flags().StringVar(&flagSubtype, "subtype", "", "Default transaction subtype")
	importCmd.Flags().StringVar(&flagSource, "source", "", "Default source id")
	importCmd.Flags().StringVar(&flagStrategy, "strategy", string(models.DuplicateSkip), "Duplicate strategy: SKIP, IMPORT_ANYWAY or FLAG")
	importCmd.Flags().StringVar(&flagLocale, "locale", "", "Decimal locale: pt-BR or en-US")
	importCmd.Flags().StringVar(&flagDelimiter, "delimiter", ",", "CSV delimiter")
	importCmd.Flags().BoolVar(&flagHasHeader, "header", true, "CSV has a header row")
	importCmd.Flags().StringVar(&flagDateCol, "date-column", "date", "CSV date column name")
	importCmd.Flags().StringVar(&flagDescCol, "description-column", "description", "CSV description column name")
	importCmd.Flags().StringVar(&flagAmountCol, "amount-column", "amount", "CSV amount column name")
	importCmd.Flags().BoolVar(&flagCSVReport, "csv-report", false, "Print the result as CSV")

	planCmd.Flags().BoolVar(&flagCSVReport, "csv-report", false, "Print each result as CSV")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(planCmd)
}

func main() {
	_ = gotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
