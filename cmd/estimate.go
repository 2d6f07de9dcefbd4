package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mindspark-app/mindspark/internal/config"
	"github.com/mindspark-app/mindspark/internal/library"
	"github.com/mindspark-app/mindspark/internal/llm"
	"github.com/mindspark-app/mindspark/internal/study"
)

// imageTokens is the flat prompt cost assumed for one attached image.
const imageTokens = 258

var estimateCmd = &cobra.Command{
	Use:   "estimate [text]",
	Short: "Estimate tokens and cost of a task without calling the AI",
	Long: `Builds the prompt a task would send, counts its tokens and prices it
with the configured model. The reply is assumed to be as long as the
prompt, capped at max_tokens.`,
	RunE: runEstimate,
}

func init() {
	estimateCmd.Flags().StringP("kind", "k", string(study.KindSummarize), "task kind")
	estimateCmd.Flags().StringP("file", "f", "", "read input text from a file")
	estimateCmd.Flags().Bool("image", false, "include one image in the estimate")
	rootCmd.AddCommand(estimateCmd)
}

func runEstimate(cmd *cobra.Command, args []string) error {
	kindStr, _ := cmd.Flags().GetString("kind")
	kind, err := study.ParseKind(kindStr)
	if err != nil {
		return taskError(cmd, err)
	}

	file, _ := cmd.Flags().GetString("file")
	input, err := readInput(cmd, args, file)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	prompt, err := study.BuildPrompt(study.Task{
		Kind:     kind,
		Input:    input,
		Language: cfg.DefaultLanguage,
		Image:    placeholderImage(kind),
	}, study.Preferences{
		SummaryLength: cfg.Preferences.SummaryLength,
		NoteStyle:     cfg.Preferences.NoteStyle,
	})
	if err != nil {
		return taskError(cmd, err)
	}

	inTokens := llm.EstimateTokens(prompt)
	if withImage, _ := cmd.Flags().GetBool("image"); withImage || kind == study.KindAnalyzeImage {
		inTokens += imageTokens
	}
	outTokens := inTokens
	if cfg.MaxTokens > 0 && outTokens > cfg.MaxTokens {
		outTokens = cfg.MaxTokens
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Cost Estimate")
	fmt.Fprintln(out, "=============")
	fmt.Fprintf(out, "  Task:              %s\n", kind.Label())
	fmt.Fprintf(out, "  Prompt tokens:     ~%d\n", inTokens)
	fmt.Fprintf(out, "  Reply tokens:      ~%d\n", outTokens)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "  Model Comparison:")
	fmt.Fprintln(out, "  ────────────────────────────────────────")
	preset := config.GetPreset(cfg.Provider)
	models := append([]string{preset.Default}, preset.Others...)
	if !contains(models, cfg.Model) {
		models = append([]string{cfg.Model}, models...)
	}
	for _, m := range models {
		marker := " "
		if m == cfg.Model {
			marker = "*"
		}
		if !llm.KnownPricing(m) {
			fmt.Fprintf(out, "  %s %-28s  (no pricing)\n", marker, m)
			continue
		}
		fmt.Fprintf(out, "  %s %-28s  ~$%.6f\n", marker, m, llm.EstimateCost(m, inTokens, outTokens))
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  * = current configuration")
	fmt.Fprintf(out, "  Provider: %s\n", cfg.Provider)
	return nil
}

// placeholderImage lets analyze_image prompts build without reading a file.
func placeholderImage(kind study.Kind) *library.ImagePart {
	if kind != study.KindAnalyzeImage {
		return nil
	}
	return &library.ImagePart{InlineData: library.InlineData{Data: "-", MIMEType: "image/png"}}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
