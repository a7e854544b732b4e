package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dvloznov/finflow/internal/ai"
	"github.com/dvloznov/finflow/internal/billing"
	"github.com/dvloznov/finflow/internal/bootstrap"
	"github.com/dvloznov/finflow/internal/config"
	"github.com/dvloznov/finflow/internal/domain"
	"github.com/dvloznov/finflow/internal/export"
	"github.com/dvloznov/finflow/internal/finance"
	"github.com/dvloznov/finflow/internal/format"
	"github.com/dvloznov/finflow/internal/logger"
	"github.com/dvloznov/finflow/internal/store"
	"github.com/rs/zerolog"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	log := logger.New("info")

	switch os.Args[1] {
	case "cycle":
		runCycle()
	case "summary":
		runSummary(log)
	case "budgets":
		runBudgets(log)
	case "suggest":
		runSuggest(log)
	case "export":
		runExport(log)
	case "set-config":
		runSetConfig(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Finflow CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  cycle       Print the billing cycle window for a month")
	fmt.Println("  summary     Print a user's cycle summary")
	fmt.Println("  budgets     Print a user's budget status")
	fmt.Println("  suggest     Suggest (and optionally save) budgets from spending history")
	fmt.Println("  export      Write an Excel or PDF report to a file")
	fmt.Println("  set-config  Set a global config value such as free_image_limit")
	fmt.Println("  help        Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// session holds what every storage-backed command needs.
type session struct {
	ctx    context.Context
	cancel context.CancelFunc
	repo   store.Repository
	svc    *finance.Service
}

func (s *session) Close() {
	s.repo.Close()
	s.cancel()
}

func openSession(log zerolog.Logger, configPath string) *session {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid config")
	}
	log = log.Level(logger.ParseLevel(cfg.Server.LogLevel))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	ctx = logger.WithContext(ctx, log)

	repo, err := bootstrap.OpenRepository(ctx, cfg)
	if err != nil {
		cancel()
		log.Fatal().Err(err).Msg("Failed to open storage")
	}

	var gemini *ai.Gemini
	if cfg.AI.Averager == config.AveragerGemini {
		if gemini, err = ai.NewGemini(ctx, cfg.AI.Model, cfg.AI.APIKey); err != nil {
			log.Warn().Err(err).Msg("Failed to create Gemini client")
		}
	}

	svc := finance.NewService(repo, finance.WithAverager(bootstrap.Averager(ctx, cfg, gemini)))
	return &session{ctx: ctx, cancel: cancel, repo: repo, svc: svc}
}

// periodFlags registers -month (1-12, as printed on a calendar) and -year.
func periodFlags(fs *flag.FlagSet) func() *finance.Period {
	month := fs.Int("month", 0, "Calendar month 1-12 (defaults to the current cycle)")
	year := fs.Int("year", 0, "Year (required with -month)")
	return func() *finance.Period {
		if *month == 0 && *year == 0 {
			return nil
		}
		if *month < 1 || *month > 12 || *year == 0 {
			fmt.Fprintln(os.Stderr, "Error: -month must be 1-12 and -year must be set")
			os.Exit(2)
		}
		return &finance.Period{Month: *month - 1, Year: *year}
	}
}

func requireUser(log zerolog.Logger, user string) string {
	user = strings.ToLower(strings.TrimSpace(user))
	if user == "" {
		log.Fatal().Msg("Error: -user is required")
	}
	return user
}

func runCycle() {
	fs := flag.NewFlagSet("cycle", flag.ExitOnError)
	startDay := fs.Int("start-day", domain.DefaultCycleStartDay, "Billing cycle start day (1-31)")
	period := periodFlags(fs)
	fs.Parse(os.Args[2:])

	if *startDay < 1 || *startDay > 31 {
		fmt.Fprintln(os.Stderr, "Error: -start-day must be between 1 and 31")
		os.Exit(2)
	}

	var r billing.Range
	if p := period(); p != nil {
		r = billing.CycleRange(p.Month, p.Year, *startDay)
	} else {
		r = billing.CurrentCycle(time.Now(), *startDay)
	}
	fmt.Printf("%s .. %s (%d days)\n", r.From, r.To, r.Days())
}

func runSummary(log zerolog.Logger) {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	user := fs.String("user", "", "User email")
	period := periodFlags(fs)
	fs.Parse(os.Args[2:])

	email := requireUser(log, *user)
	s := openSession(log, *configPath)
	defer s.Close()

	d, err := s.svc.Dashboard(s.ctx, email, period())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load summary")
	}

	fmt.Printf("\n=== %s: %s .. %s ===\n", email, d.Range.From, d.Range.To)
	fmt.Printf("Transactions: %d\n", d.Count)
	fmt.Printf("Income:       %s\n", format.Rupiah(d.Summary.TotalIncome))
	fmt.Printf("Expense:      %s\n", format.Rupiah(d.Summary.TotalExpense))
	fmt.Printf("Balance:      %s\n", format.Rupiah(d.Summary.Balance))
	fmt.Printf("Savings rate: %.1f%%\n", d.Summary.SavingsRate)

	if len(d.Summary.PerCategory) > 0 {
		fmt.Println("\nBy category:")
		for _, c := range d.Summary.PerCategory {
			fmt.Printf("  %-16s %8s\n", c.Category, format.Compact(c.Amount))
		}
	}
	if len(d.TopExpenses) > 0 {
		fmt.Println("\nTop expenses:")
		for i, tx := range d.TopExpenses {
			fmt.Printf("  %d. %s %-14s %s %s\n", i+1, tx.Date, tx.Category, format.Rupiah(tx.Amount), tx.Description)
		}
	}
	fmt.Println()
}

func runBudgets(log zerolog.Logger) {
	fs := flag.NewFlagSet("budgets", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	user := fs.String("user", "", "User email")
	period := periodFlags(fs)
	fs.Parse(os.Args[2:])

	email := requireUser(log, *user)
	s := openSession(log, *configPath)
	defer s.Close()

	statuses, r, err := s.svc.BudgetStatuses(s.ctx, email, period())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to compute budget status")
	}

	fmt.Printf("\n=== Budgets %s .. %s ===\n", r.From, r.To)
	if len(statuses) == 0 {
		fmt.Println("No budgets set.")
	}
	for _, st := range statuses {
		if st.Invalid {
			fmt.Printf("  %-16s invalid limit %s\n", st.Category, format.Rupiah(st.Limit))
			continue
		}
		fmt.Printf("  %-16s %s / %s  %5.1f%%  %s\n",
			st.Category, format.Rupiah(st.Spent), format.Rupiah(st.Limit), st.Percentage, st.Status)
	}
	fmt.Println()
}

func runSuggest(log zerolog.Logger) {
	fs := flag.NewFlagSet("suggest", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	user := fs.String("user", "", "User email")
	apply := fs.Bool("apply", false, "Save the suggestions as budgets")
	fs.Parse(os.Args[2:])

	email := requireUser(log, *user)
	s := openSession(log, *configPath)
	defer s.Close()

	suggestions, err := s.svc.SuggestBudgets(s.ctx, email, *apply)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to suggest budgets")
	}

	for _, sg := range suggestions {
		fmt.Printf("  %-16s %s\n", sg.Category, format.Rupiah(sg.Amount))
	}
	if *apply {
		fmt.Printf("Saved %d budgets.\n", len(suggestions))
	}
}

func runExport(log zerolog.Logger) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	user := fs.String("user", "", "User email")
	kind := fs.String("format", "xlsx", "Output format: xlsx or pdf")
	out := fs.String("out", "", "Output file (defaults to the download file name)")
	from := fs.String("from", "", "Start date YYYY-MM-DD")
	to := fs.String("to", "", "End date YYYY-MM-DD")
	period := periodFlags(fs)
	fs.Parse(os.Args[2:])

	email := requireUser(log, *user)
	if (*from == "") != (*to == "") {
		log.Fatal().Msg("Error: -from and -to must be given together")
	}
	if *from != "" && (!domain.ValidDate(*from) || !domain.ValidDate(*to) || *from > *to) {
		log.Fatal().Str("from", *from).Str("to", *to).Msg("Error: invalid date range")
	}

	var (
		render   func(w *os.File, r *finance.Report) error
		filename func(r *finance.Report) string
	)
	switch *kind {
	case "xlsx", "excel":
		render = func(w *os.File, r *finance.Report) error { return export.WriteExcel(w, r) }
		filename = export.ExcelFilename
	case "pdf":
		render = func(w *os.File, r *finance.Report) error { return export.WritePDF(w, r) }
		filename = export.PDFFilename
	default:
		log.Fatal().Str("format", *kind).Msg("Error: -format must be xlsx or pdf")
	}

	s := openSession(log, *configPath)
	defer s.Close()

	report, err := s.svc.Report(s.ctx, email, billing.Range{From: *from, To: *to}, period())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build report")
	}

	path := *out
	if path == "" {
		path = filename(report)
	}
	f, err := os.Create(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to create output file")
	}
	if err := render(f, report); err != nil {
		f.Close()
		log.Fatal().Err(err).Msg("Failed to write report")
	}
	if err := f.Close(); err != nil {
		log.Fatal().Err(err).Msg("Failed to close output file")
	}

	fmt.Printf("Wrote %d transactions to %s\n", len(report.Transactions), path)
}

// configWriter is implemented by backends whose config table can be edited locally.
type configWriter interface {
	SetAppConfig(ctx context.Context, key, value string) error
}

func runSetConfig(log zerolog.Logger) {
	fs := flag.NewFlagSet("set-config", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	key := fs.String("key", "", "Config key, e.g. free_image_limit")
	value := fs.String("value", "", "Config value")
	fs.Parse(os.Args[2:])

	if *key == "" {
		log.Fatal().Msg("Error: -key is required")
	}

	s := openSession(log, *configPath)
	defer s.Close()

	w, ok := s.repo.(configWriter)
	if !ok {
		log.Fatal().Msgf("Error: the %T backend is managed with migrations, not set-config", s.repo)
	}
	if err := w.SetAppConfig(s.ctx, *key, *value); err != nil {
		log.Fatal().Err(err).Msg("Failed to set config")
	}
	fmt.Printf("%s = %s\n", *key, *value)
}
