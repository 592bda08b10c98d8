// File: cmd/analyze.go
package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scriptlens/api/schemas"
	"github.com/xkilldash9x/scriptlens/internal/analysis/taint"
	"github.com/xkilldash9x/scriptlens/internal/config"
	"github.com/xkilldash9x/scriptlens/internal/engine"
	"github.com/xkilldash9x/scriptlens/internal/llmclient"
	"github.com/xkilldash9x/scriptlens/internal/observability"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	outputPath string
	outputFmt  string
	pretty     bool
	focus      string
	refine     bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Analyze one script file (or stdin with \"-\") and emit the assessment as JSON.",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write the report to a file instead of stdout")
	analyzeCmd.Flags().StringVar(&outputFmt, "format", "json", "output format (json)")
	analyzeCmd.Flags().BoolVar(&pretty, "pretty", false, "indent the JSON output")
	analyzeCmd.Flags().StringVar(&focus, "focus", "", "analysis focus hint (security, quality, structure)")
	analyzeCmd.Flags().BoolVar(&refine, "refine", false, "enable generative-model taint refinement")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	logger := observability.GetLogger()

	cfg.SetOutputConfig(config.OutputConfig{Path: outputPath, Format: outputFmt, Pretty: pretty})
	if focus != "" {
		cfg.SetAnalysisFocus(focus)
	}
	if refine {
		cfg.SetLLMRefinementEnabled(true)
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	name, source, err := readSource(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var refiner taint.Refiner
	if cfg.LLM().RefinementEnabled {
		client, err := llmclient.New(cfg.LLM(), logger)
		if err != nil {
			return fmt.Errorf("initializing refinement client: %w", err)
		}
		defer client.Close()
		refiner = taint.NewLLMRefiner(client, cfg.LLM(), logger)
	}

	eng := engine.New(cfg, logger, nil, refiner)
	result, err := eng.Analyze(ctx, schemas.SourceUnit{
		Name:   name,
		Source: string(source),
		Focus:  schemas.FocusArea(cfg.Analysis().Focus),
	})
	if err != nil {
		return err
	}

	return writeReport(result, cfg.Output(), logger)
}

// readSource loads the script from a file, or stdin when the argument is
// "-".
func readSource(arg string) (string, []byte, error) {
	if arg == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", nil, fmt.Errorf("reading stdin: %w", err)
		}
		return "stdin", data, nil
	}

	data, err := os.ReadFile(arg)
	if err != nil {
		return "", nil, fmt.Errorf("reading script %q: %w", arg, err)
	}
	return filepath.Base(arg), data, nil
}

func writeReport(result *schemas.ScriptAnalysis, out config.OutputConfig, logger *zap.Logger) error {
	if out.Format != "" && out.Format != "json" {
		return fmt.Errorf("unsupported output format %q", out.Format)
	}

	var payload []byte
	var err error
	if out.Pretty {
		payload, err = json.MarshalIndent(result, "", "  ")
	} else {
		payload, err = json.Marshal(result)
	}
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	payload = append(payload, '\n')

	if out.Path == "" {
		_, err = os.Stdout.Write(payload)
		return err
	}

	if err := os.WriteFile(out.Path, payload, 0o644); err != nil {
		return fmt.Errorf("writing report to %q: %w", out.Path, err)
	}
	logger.Info("Report written.", zap.String("path", out.Path))
	return nil
}
