package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"chemhits/adapters/excel"
	"chemhits/app"
	"chemhits/domain/bioactivity"
	"chemhits/domain/core"
	"chemhits/internal"
	"chemhits/internal/config"
	"chemhits/internal/container"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "chemhits-cli",
		Short: "Call and classify hits from ChEMBL bioactivity records",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// A missing .env is fine; the environment is used as is
			_ = godotenv.Load()
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newRunCmd(),
		newClassifyCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// commonFlags are shared by every command that writes outputs
type commonFlags struct {
	out          string
	formats      []string
	cutoff       float64
	strongCutoff float64
	weakCutoff   float64
	maxStd       float64
	minN         int
	activityCol  string
	jsonOutput   bool
}

func (f *commonFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.out, "out", "", "Output directory (default $OUTPUT_DIR or results)")
	cmd.Flags().StringSliceVar(&f.formats, "format", nil, "Output formats: csv, xlsx, md, html")
	cmd.Flags().Float64Var(&f.cutoff, "cutoff", 6.0, "Hit cutoff on the activity column")
	cmd.Flags().Float64Var(&f.strongCutoff, "strong-cutoff", 7.0, "Mean activity for a strong hit")
	cmd.Flags().Float64Var(&f.weakCutoff, "weak-cutoff", 6.0, "Mean activity for a weak hit")
	cmd.Flags().Float64Var(&f.maxStd, "max-std", 1.5, "Largest standard deviation of a strong hit")
	cmd.Flags().IntVar(&f.minN, "min-n", 1, "Minimum measurements for a hit and for its label")
	cmd.Flags().StringVar(&f.activityCol, "activity-col", "pIC50", "Activity column: pIC50 or pKi")
	cmd.Flags().BoolVar(&f.jsonOutput, "json", false, "Print run manifests as JSON")
}

// apply copies the flags the user set onto the loaded configuration
func (f *commonFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("out") {
		cfg.Output.Dir = f.out
	}
	if flags.Changed("format") {
		cfg.Output.Formats = f.formats
	}
	if flags.Changed("cutoff") {
		cfg.Policy.HitCutoff = f.cutoff
	}
	if flags.Changed("strong-cutoff") {
		cfg.Policy.StrongCutoff = f.strongCutoff
	}
	if flags.Changed("weak-cutoff") {
		cfg.Policy.WeakCutoff = f.weakCutoff
	}
	if flags.Changed("max-std") {
		cfg.Policy.MaxStd = f.maxStd
	}
	if flags.Changed("min-n") {
		cfg.Policy.HitMinN = f.minN
		cfg.Policy.ClassifyMinN = f.minN
	}
	if flags.Changed("activity-col") {
		cfg.Policy.ActivityColumn = f.activityCol
	}
}

func newRunCmd() *cobra.Command {
	var (
		common      commonFlags
		targets     []string
		types       []string
		source      string
		input       string
		debug       bool
		limit       int
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch records for one or more targets and classify their hits",
		Long: `Fetch bioactivity records, normalize them, call hits and write the hit summary.

Example: chemhits-cli run --target CHEMBL204 --types IC50,Ki --format csv,xlsx --out results`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			common.apply(cmd, cfg)
			if cmd.Flags().Changed("source") {
				cfg.Source.Kind = source
			}
			if cmd.Flags().Changed("input") {
				cfg.Source.InputFile = input
			}
			if cmd.Flags().Changed("types") {
				cfg.Policy.MeasurementTypes = types
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			parsed := make([]core.TargetID, 0, len(targets))
			for _, t := range targets {
				id, err := core.ParseTargetID(t)
				if err != nil {
					return err
				}
				parsed = append(parsed, id)
			}

			return runTargets(cmd.Context(), cfg, parsed, debug, limit, concurrency, common.jsonOutput)
		},
	}

	common.register(cmd)
	cmd.Flags().StringSliceVar(&targets, "target", nil, "ChEMBL target ID (repeatable)")
	cmd.Flags().StringSliceVar(&types, "types", nil, "Standard types to fetch and keep (default IC50)")
	cmd.Flags().StringVar(&source, "source", config.SourceREST, "Record source: rest, postgres or file")
	cmd.Flags().StringVar(&input, "input", "", "CSV or XLSX export for the file source")
	cmd.Flags().BoolVar(&debug, "debug", false, "Fetch only confidence >= 8 binding assays")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum records per target (default $CHEMBL_RECORD_LIMIT or 200)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 2, "Targets processed at once")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

func runTargets(ctx context.Context, cfg *config.Config, targets []core.TargetID, debug bool, limit, concurrency int, jsonOutput bool) error {
	logger := internal.NewDefaultLogger()
	c, err := container.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer c.Shutdown(context.Background())

	results := make([]*app.RunResult, len(targets))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			outDir := cfg.Output.Dir
			if len(targets) > 1 {
				outDir = filepath.Join(outDir, target.String())
			}
			service, err := c.NewService(outDir)
			if err != nil {
				return err
			}

			q := c.DefaultQuery()
			q.TargetID = target
			q.Debug = debug
			if limit > 0 {
				q.Limit = limit
			}

			result, err := service.Run(gctx, q)
			if err != nil {
				return fmt.Errorf("%s: %w", target, err)
			}
			mu.Lock()
			results[i] = result
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	return printResults(results, jsonOutput)
}

func newClassifyCmd() *cobra.Command {
	var (
		common commonFlags
		input  string
		target string
	)

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify hits in a local CSV or XLSX export",
		Long: `Run the full pipeline over every record in a local export, without query filtering.

Example: chemhits-cli classify --input activities.csv --target CHEMBL204 --format md,html`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			common.apply(cmd, cfg)
			cfg.Source.Kind = config.SourceFile
			cfg.Source.InputFile = input
			if err := cfg.Validate(); err != nil {
				return err
			}

			targetID, err := core.ParseTargetID(target)
			if err != nil {
				return err
			}

			return classifyFile(cmd.Context(), cfg, targetID, common.jsonOutput)
		},
	}

	common.register(cmd)
	cmd.Flags().StringVar(&input, "input", "", "CSV or XLSX export")
	cmd.Flags().StringVar(&target, "target", "local", "Target label for outputs and the run manifest")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func classifyFile(ctx context.Context, cfg *config.Config, target core.TargetID, jsonOutput bool) error {
	c, err := container.New(ctx, cfg, internal.NewDefaultLogger())
	if err != nil {
		return err
	}
	defer c.Shutdown(context.Background())

	supplier, ok := c.Supplier.(*excel.FileSupplier)
	if !ok {
		return fmt.Errorf("classify needs a file source, got %s", c.Supplier.Name())
	}
	raw, err := supplier.ReadAll()
	if err != nil {
		return err
	}

	service, err := c.NewService(cfg.Output.Dir)
	if err != nil {
		return err
	}
	result, err := service.RunRaw(ctx, target, supplier.Name(), raw)
	if err != nil {
		return err
	}
	return printResults([]*app.RunResult{result}, jsonOutput)
}

func printResults(results []*app.RunResult, jsonOutput bool) error {
	if jsonOutput {
		manifests := make([]interface{}, 0, len(results))
		for _, r := range results {
			manifests = append(manifests, r.Manifest)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(manifests)
	}

	for _, r := range results {
		m := r.Manifest
		fmt.Printf("\n🎯 %s (%s)\n", m.TargetID, m.Source)
		fmt.Printf("Records: %d raw, %d normalized, %d hit rows\n", m.RawRecords, m.NormalizedRows, m.HitRows)
		fmt.Printf("Compounds: %d strong, %d weak, %d non-hit\n",
			m.Compounds[string(bioactivity.StrengthStrong)],
			m.Compounds[string(bioactivity.StrengthWeak)],
			m.Compounds[string(bioactivity.StrengthNonHit)])
		for _, path := range m.Outputs {
			fmt.Printf("  📄 %s\n", path)
		}
		fmt.Printf("Run %s, input %s\n", m.RunID, m.Fingerprint.InputHash)
	}
	return nil
}
