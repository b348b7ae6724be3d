package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"go.uber.org/zap"

	"plpredict/pkg/config"
	"plpredict/pkg/data"
	"plpredict/pkg/match"
	"plpredict/pkg/training"
)

// intList is a comma-separated list of ints; "None" and "0" both mean an
// unbounded depth.
type intList []int

func (l *intList) String() string {
	parts := make([]string, len(*l))
	for i, v := range *l {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func (l *intList) Set(s string) error {
	var out []int
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if strings.EqualFold(p, "none") {
			out = append(out, 0)
			continue
		}
		v, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("bad value %q", p)
		}
		out = append(out, v)
	}
	*l = out
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	tc := training.DefaultConfig()
	tc.Seed = cfg.RandomSeed
	tc.Folds = cfg.CVFolds
	tc.TestRatio = cfg.TestRatio

	input := flag.String("input", cfg.CleanedPath, "cleaned feature CSV")
	modelPath := flag.String("model", cfg.ModelPath, "model output path")
	scalerPath := flag.String("scaler", cfg.ScalerPath, "scaler output path")
	report := flag.String("report", "", "optional JSON report path")
	flag.Int64Var(&tc.Seed, "seed", tc.Seed, "random seed for split and forest")
	flag.IntVar(&tc.Folds, "folds", tc.Folds, "cross-validation folds")
	flag.Float64Var(&tc.TestRatio, "test-ratio", tc.TestRatio, "held-out fraction")
	flag.IntVar(&tc.Jobs, "jobs", 0, "concurrent fits (0 = GOMAXPROCS)")
	flag.Var((*intList)(&tc.Grid.NEstimators), "n-estimators", "grid: trees per forest")
	flag.Var((*intList)(&tc.Grid.MaxDepth), "max-depth", "grid: max depth (None or 0 = unbounded)")
	flag.Var((*intList)(&tc.Grid.MinSamplesSplit), "min-samples-split", "grid: min samples to split")
	flag.Var((*intList)(&tc.Grid.MinSamplesLeaf), "min-samples-leaf", "grid: min samples per leaf")
	flag.Parse()

	logger, err := cfg.NewLogger()
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *input, *modelPath, *scalerPath, *report, tc, logger); err != nil {
		logger.Error("training failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, input, modelPath, scalerPath, reportPath string, tc training.Config, logger *zap.Logger) error {
	rows, err := data.ReadFeatureRowsFile(input)
	if err != nil {
		return err
	}
	fmt.Printf("Dataset shape: (%d, %d)\n", len(rows), len(match.FeatureColumns))
	fmt.Println("Training model with hyperparameter tuning...")

	res, err := training.Train(ctx, rows, tc, logger)
	if err != nil {
		return err
	}
	printReport(res)

	if err := res.Save(modelPath, scalerPath); err != nil {
		return err
	}
	if reportPath != "" {
		if err := res.WriteJSONFile(reportPath); err != nil {
			return err
		}
	}
	logger.Sugar().Infow("artifacts saved", "model", modelPath, "scaler", scalerPath, "report", reportPath)
	fmt.Println("\nModel and scaler saved successfully!")
	fmt.Printf("Training completed with %.1f%% accuracy\n", res.Evaluation.Accuracy*100)
	return nil
}

func printReport(res *training.Result) {
	fmt.Printf("Best parameters: %s\n", res.Search.Best)
	fmt.Printf("Best CV accuracy: %.3f\n", res.Search.BestScore)

	fmt.Printf("\nModel Performance:\nAccuracy: %.3f\n", res.Evaluation.Accuracy)
	fmt.Println("\nClassification Report:")
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "\tprecision\trecall\tf1-score\tsupport\t")
	for _, c := range res.Evaluation.Classes {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t%d\t\n", res.Labels[c.Label], c.Precision, c.Recall, c.F1, c.Support)
	}
	fmt.Fprintln(tw, "\t\t\t\t\t")
	m, w := res.Evaluation.MacroAvg, res.Evaluation.WeightedAvg
	fmt.Fprintf(tw, "macro avg\t%.2f\t%.2f\t%.2f\t%d\t\n", m.Precision, m.Recall, m.F1, m.Support)
	fmt.Fprintf(tw, "weighted avg\t%.2f\t%.2f\t%.2f\t%d\t\n", w.Precision, w.Recall, w.F1, w.Support)
	tw.Flush()

	fmt.Println("\nConfusion Matrix (rows: actual, columns: predicted):")
	tw = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, "\t")
	for _, o := range match.Outcomes() {
		fmt.Fprintf(tw, "%s\t", o)
	}
	fmt.Fprintln(tw)
	for i, o := range match.Outcomes() {
		fmt.Fprintf(tw, "%s\t", o)
		for _, n := range res.Evaluation.Confusion[i] {
			fmt.Fprintf(tw, "%d\t", n)
		}
		fmt.Fprintln(tw)
	}
	tw.Flush()

	fmt.Println("\nFeature Importance:")
	tw = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, imp := range res.Importances {
		fmt.Fprintf(tw, "  %s\t%.4f\n", imp.Feature, imp.Importance)
	}
	tw.Flush()
}
