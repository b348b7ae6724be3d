package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"go.uber.org/zap"

	"plpredict/pkg/config"
	"plpredict/pkg/data"
	"plpredict/pkg/dataprep"
	"plpredict/pkg/match"
	"plpredict/pkg/stats"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	input := flag.String("input", "Premier_League.csv", "raw match CSV")
	output := flag.String("output", cfg.CleanedPath, "cleaned feature CSV")
	flag.Parse()

	logger, err := cfg.NewLogger()
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(*input, *output, logger); err != nil {
		logger.Error("preprocessing failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(input, output string, logger *zap.Logger) error {
	log := logger.Sugar()

	records, err := data.ReadRecordsFile(input)
	if err != nil {
		return err
	}
	log.Infow("raw matches loaded", "path", input, "rows", len(records))

	rows, sum, err := dataprep.Clean(records)
	if err != nil {
		return err
	}
	if err := data.WriteFeatureRowsFile(output, rows); err != nil {
		return err
	}
	log.Infow("cleaned dataset written", "path", output, "rows", sum.Kept, "dropped", sum.Dropped)

	fmt.Println("Dataset cleaned successfully!")
	fmt.Printf("Final dataset shape: (%d, %d)\n", sum.Kept, len(match.FeatureColumns)+1)
	fmt.Printf("Dropped rows: %d of %d\n", sum.Dropped, sum.Read)
	fmt.Println("Outcome distribution:")
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, o := range match.Outcomes() {
		fmt.Fprintf(tw, "  %s\t%d\n", o, sum.Distribution[o])
	}
	tw.Flush()

	if len(rows) > 0 {
		X, _ := match.Matrix(rows)
		fmt.Println("Feature summary:")
		tw = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "  feature\tmean\tstd\tmin\tmedian\tmax\t")
		for _, s := range stats.Describe(X, match.FeatureColumns) {
			fmt.Fprintf(tw, "  %s\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t\n", s.Name, s.Mean, s.Std, s.Min, s.Median, s.Max)
		}
		tw.Flush()

		for _, f := range stats.TukeyFences(X, match.FeatureColumns, 1.5) {
			if f.Outliers > 0 {
				log.Infow("values outside tukey fence", "feature", f.Name, "count", f.Outliers, "low", f.Low, "high", f.High)
			}
		}
	}
	return nil
}
