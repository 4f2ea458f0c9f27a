package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/presence-cli/internal/model"
)

var (
	assessURL     string
	assessName    string
	assessAddress string
	assessCity    string
	assessState   string
	assessFile    string
)

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Assess the web presence of one business or a batch file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		if assessFile != "" {
			return assessBatch(cmd, e)
		}

		if assessURL == "" && assessName == "" {
			return eris.New("either --url or --file is required")
		}

		target := model.Target{
			URL:     assessURL,
			Name:    assessName,
			Address: assessAddress,
			City:    assessCity,
			State:   assessState,
		}

		run, err := e.Service.Assess(ctx, target)
		if err != nil {
			return eris.Wrap(err, "assess")
		}

		logRunSummary(run)
		return printJSON(run)
	},
}

func assessBatch(cmd *cobra.Command, e *env) error {
	data, err := os.ReadFile(assessFile)
	if err != nil {
		return eris.Wrapf(err, "read targets file %s", assessFile)
	}

	var targets []model.Target
	if err := json.Unmarshal(data, &targets); err != nil {
		return eris.Wrapf(err, "parse targets file %s", assessFile)
	}
	if len(targets) == 0 {
		return eris.New("targets file is empty")
	}

	runs, batchErr := e.Service.AssessBatch(cmd.Context(), targets)

	completed := 0
	for _, run := range runs {
		if run != nil {
			completed++
		}
	}
	zap.L().Info("batch complete",
		zap.Int("targets", len(targets)),
		zap.Int("completed", completed),
	)

	if err := printJSON(runs); err != nil {
		return err
	}
	if batchErr != nil {
		return eris.Wrap(batchErr, "batch had failures")
	}
	return nil
}

func logRunSummary(run *model.AssessmentRun) {
	fields := []zap.Field{
		zap.String("run_id", run.ID),
		zap.String("url", run.Target.URL),
	}
	if run.CompositeScore != nil {
		fields = append(fields, zap.Float64("composite_score", *run.CompositeScore))
	}
	zap.L().Info("assessment complete", fields...)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	assessCmd.Flags().StringVar(&assessURL, "url", "", "business website URL")
	assessCmd.Flags().StringVar(&assessName, "name", "", "business name")
	assessCmd.Flags().StringVar(&assessAddress, "address", "", "street address")
	assessCmd.Flags().StringVar(&assessCity, "city", "", "city")
	assessCmd.Flags().StringVar(&assessState, "state", "", "state")
	assessCmd.Flags().StringVar(&assessFile, "file", "", "JSON file with an array of targets")
	rootCmd.AddCommand(assessCmd)
}
