// Package main provides the CLI entry point for recordfilter.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/canectors/recordfilter/internal/cli"
	"github.com/canectors/recordfilter/internal/config"
	"github.com/canectors/recordfilter/internal/dataset"
	"github.com/canectors/recordfilter/internal/filter"
	"github.com/canectors/recordfilter/internal/logger"
	"github.com/canectors/recordfilter/internal/runtime"
	"github.com/canectors/recordfilter/pkg/record"
)

// Exit codes
const (
	ExitSuccess         = 0
	ExitValidationError = 1
	ExitParseError      = 2
	ExitRuntimeError    = 3
)

var (
	// Global flags
	verbose      bool
	quiet        bool
	logFormat    string
	outputFormat string
	dataFile     string

	// Criterion flags
	activeFlag   bool
	minTotalFlag string
	statusFlag   string
	searchFlag   string
	categoryFlag string
	minPriceFlag string

	// Build information (set via ldflags during build)
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitRuntimeError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "recordfilter",
	Short: "recordfilter - Filter users, orders and products by optional criteria",
	Long: `recordfilter applies optional, independent criteria to in-memory
record collections and prints the records that satisfy all of them.

Criteria that are not given impose no constraint. Queries can be given
as flags or as query files (JSON/YAML format).

Examples:
  # Active users
  recordfilter users --active=true

  # Completed orders above 1000
  recordfilter orders --min-total 1000 --status Completed

  # Products named like "TV" in Elec costing at least 80
  recordfilter products --search TV --category Elec --min-price 80

  # Run a query file against your own records
  recordfilter run query.yaml --data records.json --output json`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		format, err := logger.ParseFormat(logFormat)
		if err != nil {
			fmt.Fprintln(os.Stderr, cli.FailureMark(), err)
			os.Exit(ExitValidationError)
		}
		if _, err := cli.ParseOutputFormat(outputFormat); err != nil {
			fmt.Fprintln(os.Stderr, cli.FailureMark(), err)
			os.Exit(ExitValidationError)
		}

		// Configure logger level based on flags
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		} else if quiet {
			level = slog.LevelError
		}
		logger.SetLevelAndFormat(level, format)
	},
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Filter users",
	Long: `Filter the user collection.

Flags:
  --active   Keep users whose active flag equals the value

Examples:
  recordfilter users --active=true
  recordfilter users --active=false --output json`,
	Args: cobra.NoArgs,
	Run:  runUsers,
}

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Filter orders",
	Long: `Filter the order collection.

Flags:
  --min-total   Keep orders whose total is strictly greater than the value
  --status      Keep orders with this status (Pending, Completed, Cancelled)

Exit codes:
  0 - Query ran (even when nothing matched)
  1 - A criterion was rejected (negative bound, unknown status)
  2 - The data file could not be parsed
  3 - Runtime errors

Examples:
  recordfilter orders --min-total 1000 --status Completed
  recordfilter orders --status cancelled`,
	Args: cobra.NoArgs,
	Run:  runOrders,
}

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Filter products",
	Long: `Filter the product collection.

Flags:
  --search      Keep products whose name contains the term (case-sensitive)
  --category    Keep products in exactly this category
  --min-price   Keep products whose price is at least the value

Blank --search and --category values impose no constraint.

Examples:
  recordfilter products --search TV --category Elec --min-price 80`,
	Args: cobra.NoArgs,
	Run:  runProducts,
}

var runCmd = &cobra.Command{
	Use:   "run <query-file>",
	Short: "Run a query file",
	Long: `Run the query defined in a query file.

The query file is first validated against the schema.
If validation fails, the query will not be executed.

Records are taken from the query file's "records" list, then from
--data, then from the built-in sample collections.

Exit codes:
  0 - Query ran successfully
  1 - Validation errors or rejected criteria
  2 - Parse errors
  3 - Runtime errors

Examples:
  recordfilter run query.json
  recordfilter run --verbose query.yaml
  recordfilter run query.yaml --data orders.json --output json`,
	Args: cobra.ExactArgs(1),
	Run:  runQueryFile,
}

var validateCmd = &cobra.Command{
	Use:   "validate <query-file>",
	Short: "Validate a query file",
	Long: `Validate a query file against the schema and check its criteria.

Supports both JSON and YAML formats. The format is auto-detected
based on file extension (.json, .yaml, .yml) or content.

Exit codes:
  0 - Query file is valid
  1 - Validation errors (schema violations, rejected criteria)
  2 - Parse errors (invalid JSON/YAML syntax)

Examples:
  recordfilter validate query.json
  recordfilter validate --verbose query.yaml`,
	Args: cobra.ExactArgs(1),
	Run:  runValidate,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Print version, commit hash, and build date information.",
	Run:   runVersion,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "json", "Log format: json or human")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", cli.OutputText, "Result format: text or json")

	// Record source for every filtering command
	for _, cmd := range []*cobra.Command{usersCmd, ordersCmd, productsCmd, runCmd} {
		cmd.Flags().StringVar(&dataFile, "data", "", "JSON/YAML file of records to filter instead of the sample data")
	}

	// Criterion flags
	usersCmd.Flags().BoolVar(&activeFlag, "active", false, "Keep users with this active flag")
	ordersCmd.Flags().StringVar(&minTotalFlag, "min-total", "", "Keep orders with a total strictly greater than this amount")
	ordersCmd.Flags().StringVar(&statusFlag, "status", "", "Keep orders with this status")
	productsCmd.Flags().StringVar(&searchFlag, "search", "", "Keep products whose name contains this term")
	productsCmd.Flags().StringVar(&categoryFlag, "category", "", "Keep products in this category")
	productsCmd.Flags().StringVar(&minPriceFlag, "min-price", "", "Keep products priced at least this amount")

	// Add commands
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(ordersCmd)
	rootCmd.AddCommand(productsCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)
}

func runUsers(cmd *cobra.Command, _ []string) {
	q := &config.Query{Name: "users", Kind: record.KindUsers}
	if cmd.Flags().Changed("active") {
		active := activeFlag
		q.Users.Active = &active
	}
	executeQuery(q)
}

func runOrders(cmd *cobra.Command, _ []string) {
	q := &config.Query{Name: "orders", Kind: record.KindOrders}

	if cmd.Flags().Changed("min-total") {
		minTotal, err := filter.ParseBoundCriterion(filter.CriterionMinTotal, minTotalFlag)
		if err != nil {
			exitQueryError(err)
		}
		q.Orders.MinTotal = minTotal
	}
	if cmd.Flags().Changed("status") {
		status, err := filter.ParseStatusCriterion(statusFlag)
		if err != nil {
			exitQueryError(err)
		}
		q.Orders.Status = status
	}

	executeQuery(q)
}

func runProducts(cmd *cobra.Command, _ []string) {
	q := &config.Query{
		Name: "products",
		Kind: record.KindProducts,
		Products: filter.ProductCriteria{
			SearchTerm: searchFlag,
			Category:   categoryFlag,
		},
	}

	if cmd.Flags().Changed("min-price") {
		minPrice, err := filter.ParseBoundCriterion(filter.CriterionMinPrice, minPriceFlag)
		if err != nil {
			exitQueryError(err)
		}
		q.Products.MinPrice = minPrice
	}

	executeQuery(q)
}

func runQueryFile(_ *cobra.Command, args []string) {
	q := loadQuery(args[0])
	if verbose && !quiet {
		cli.PrintQuerySummary(os.Stderr, q)
	}
	executeQuery(q)
}

func runValidate(_ *cobra.Command, args []string) {
	queryPath := args[0]

	if !quiet {
		fmt.Printf("Validating query file: %s\n", queryPath)
	}

	q := loadQuery(queryPath)

	if !quiet {
		fmt.Println(cli.SuccessMark(), "Query file is valid")
		if verbose {
			cli.PrintQuerySummary(os.Stdout, q)
		}
	}

	os.Exit(ExitSuccess)
}

func runVersion(_ *cobra.Command, _ []string) {
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Commit: %s\n", commit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// loadQuery parses, validates and converts a query file, exiting on failure.
func loadQuery(queryPath string) *config.Query {
	result := config.ParseConfig(queryPath)

	// Handle parse errors
	if len(result.ParseErrors) > 0 {
		cli.PrintParseErrors(os.Stderr, result.ParseErrors, verbose)
		os.Exit(ExitParseError)
	}

	// Handle validation errors
	if len(result.ValidationErrors) > 0 {
		cli.PrintValidationErrors(os.Stderr, result.ValidationErrors, verbose, quiet)
		os.Exit(ExitValidationError)
	}

	q, err := config.ConvertToQuery(result.Data)
	if err != nil {
		exitQueryError(err)
	}

	logger.Debug("query file loaded",
		slog.String("path", queryPath),
		slog.String("format", result.Format),
		slog.String("query_name", q.Name),
		slog.String("kind", string(q.Kind)),
	)
	return q
}

// loadDataFile reads --data for the given kind. It returns nil when the
// flag is unset.
func loadDataFile(kind record.Kind) *dataset.Dataset {
	if dataFile == "" {
		return nil
	}

	raw, parseErrs := config.ParseRecordsFile(dataFile)
	if len(parseErrs) > 0 {
		cli.PrintParseErrors(os.Stderr, parseErrs, verbose)
		os.Exit(ExitParseError)
	}

	data := &dataset.Dataset{}
	if err := data.Decode(kind, raw); err != nil {
		exitQueryError(err)
	}

	logger.Debug("data file loaded",
		slog.String("path", dataFile),
		slog.String("kind", string(kind)),
		slog.Int("records", data.Len(kind)),
	)
	return data
}

// executeQuery runs q and prints its matches, then exits.
func executeQuery(q *config.Query) {
	var data *dataset.Dataset
	if q.Dataset == nil {
		data = loadDataFile(q.Kind)
	} else if dataFile != "" {
		logger.Debug("inline records take precedence over data file",
			slog.String("path", dataFile),
		)
	}
	executor := runtime.NewExecutor(data)

	execResult, err := executor.Execute(q)
	if err != nil {
		cli.PrintExecutionError(os.Stderr, execResult, err)
		if cli.IsQueryError(err) {
			os.Exit(ExitValidationError)
		}
		os.Exit(ExitRuntimeError)
	}

	opts := cli.OutputOptions{Verbose: verbose, Quiet: quiet}
	opts.Format, _ = cli.ParseOutputFormat(outputFormat)

	if err := cli.PrintResult(os.Stdout, execResult, opts); err != nil {
		fmt.Fprintf(os.Stderr, "%s Failed to write results: %v\n", cli.FailureMark(), err)
		os.Exit(ExitRuntimeError)
	}
	if verbose {
		cli.PrintSummary(os.Stderr, execResult, opts)
	}

	os.Exit(ExitSuccess)
}

// exitQueryError reports a rejected query and exits with ExitValidationError.
func exitQueryError(err error) {
	cli.PrintQueryError(os.Stderr, err, verbose)
	os.Exit(ExitValidationError)
}
