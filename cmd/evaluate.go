package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xkilldash9x/protosage/api/schemas"
	"github.com/xkilldash9x/protosage/internal/config"
	"github.com/xkilldash9x/protosage/internal/observability"
	"go.uber.org/zap"
)

func newEvaluateCmd(factory ComponentFactory) *cobra.Command {
	var asJSON bool

	evaluateCmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Run the full embedding evaluation pipeline",
		Long: `Scores a multi-label linear classifier on the stored protein features,
trains a GraphSAGE model on the graph service, re-scores the classifier on
the induced embeddings, and reports both micro-averaged F1 scores.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()
			cfg := config.Get()

			components, err := factory.Create(ctx, cfg)
			if err != nil {
				return err
			}
			defer components.Shutdown()

			report, err := components.Pipeline.Run(ctx)
			if err != nil {
				logger.Error("Evaluation run failed", zap.Error(err))
				return err
			}

			if asJSON {
				return printReportJSON(cmd, report)
			}
			printReport(cmd, report)
			return nil
		},
	}

	evaluateCmd.Flags().BoolVar(&asJSON, "json", false, "Emit the report as JSON instead of text")

	return evaluateCmd
}

func printReportJSON(cmd *cobra.Command, report *schemas.EvaluationReport) error {
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}
	cmd.Println(string(out))
	return nil
}

func printReport(cmd *cobra.Command, report *schemas.EvaluationReport) {
	cmd.Printf("Run %s\n", report.RunID)
	cmd.Printf("  train partition: %d samples, test partition: %d samples\n",
		report.TrainSamples, report.TestSamples)
	cmd.Printf("  baseline  (%3d features):   micro-F1 %.4f\n",
		report.BaselineDimension, report.BaselineF1)
	cmd.Printf("  embedding (%3d dimensions): micro-F1 %.4f\n",
		report.EmbeddingDimension, report.EmbeddingF1)
	cmd.Printf("  model %q trained on %q in %dms\n",
		report.ModelName, report.TrainGraph.Name, report.TrainMillis)
}
