package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mindspark-app/mindspark/internal/export"
	"github.com/mindspark-app/mindspark/internal/imageinput"
	"github.com/mindspark-app/mindspark/internal/progress"
	"github.com/mindspark-app/mindspark/internal/study"
	"github.com/mindspark-app/mindspark/internal/walker"
)

var batchCmd = &cobra.Command{
	Use:   "batch <kind> <path|glob>...",
	Short: "Run one study task over many files",
	Long: `Runs the same task over every matching file, one at a time. Arguments
may be files, directories (walked recursively) or doublestar globs such
as "notes/**/*.md". analyze_image picks up images; every other kind
reads text files. Files with identical content are processed once.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringP("language", "l", "", "target language for translate (default from config)")
	batchCmd.Flags().String("prompt", "", "instruction for analyze_image")
	batchCmd.Flags().StringSlice("exclude", nil, "glob patterns to skip")
	batchCmd.Flags().Bool("save", false, "save every result to the library")
	batchCmd.Flags().String("export", "", "export every result: txt, md, html or json")
	batchCmd.Flags().String("out", ".", "directory for exported files")
	batchCmd.Flags().Bool("dry-run", false, "list the files without calling the AI")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	start := time.Now()

	kind, err := study.ParseKind(args[0])
	if err != nil {
		return taskError(cmd, err)
	}
	if kind == study.KindChat {
		return fmt.Errorf("chat cannot run in batch")
	}

	media := walker.MediaText
	if kind == study.KindAnalyzeImage {
		media = walker.MediaImage
	}
	exclude, _ := cmd.Flags().GetStringSlice("exclude")
	files, err := walker.Expand(args[1:], walker.Config{Media: media, Exclude: exclude})
	if err != nil {
		return fmt.Errorf("expanding inputs: %w", err)
	}
	if len(files) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No matching files.")
		return nil
	}

	if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
		for _, f := range files {
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d bytes)\n", f.RelPath, f.Size)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d files\n", len(files))
		return nil
	}

	var exporter export.Exporter
	if format, _ := cmd.Flags().GetString("export"); format != "" {
		if exporter, err = export.ForFormat(format); err != nil {
			return err
		}
	}

	a, err := openApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	language, _ := cmd.Flags().GetString("language")
	if kind == study.KindTranslate && language == "" {
		language = a.cfg.DefaultLanguage
	}
	prompt, _ := cmd.Flags().GetString("prompt")
	save, _ := cmd.Flags().GetBool("save")
	outDir, _ := cmd.Flags().GetString("out")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	reporter := progress.NewReporter(cmd.ErrOrStderr())
	reporter.Start(len(files))

	var failed []string
	var usage study.Usage
	for i, f := range files {
		if ctx.Err() != nil {
			break
		}
		reporter.Update(i+1, f.RelPath)

		task, err := batchTask(kind, f, language, prompt, a.cfg.MaxImageBytes)
		if err == nil {
			var res *study.Result
			if res, err = a.assistant.Run(ctx, task); err == nil {
				usage.InputTokens += res.Usage.InputTokens
				usage.OutputTokens += res.Usage.OutputTokens
				usage.CostUSD += res.Usage.CostUSD
				err = storeBatchResult(ctx, a, f, task, res, save, exporter, outDir)
			}
		}
		if err != nil {
			a.logger.Warn("batch item failed", zap.String("file", f.RelPath), zap.Error(err))
			failed = append(failed, fmt.Sprintf("%s: %s", f.RelPath, study.UserMessage(err)))
		}
	}
	reporter.Finish()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Processed %d of %d files in %s\n", len(files)-len(failed), len(files), time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(out, "  Tokens: %d in, %d out (~$%.4f)\n", usage.InputTokens, usage.OutputTokens, usage.CostUSD)
	if len(failed) > 0 {
		fmt.Fprintln(out, "  Failed:")
		for _, f := range failed {
			fmt.Fprintf(out, "    %s\n", f)
		}
		return fmt.Errorf("%d of %d files failed", len(failed), len(files))
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}

func batchTask(kind study.Kind, f walker.FileInfo, language, prompt string, maxImageBytes int64) (study.Task, error) {
	task := study.Task{Kind: kind, Language: language}
	if f.Media == walker.MediaImage {
		img, err := imageinput.Load(f.Path, maxImageBytes)
		if err != nil {
			return task, err
		}
		task.Image = img
		task.Input = prompt
		return task, nil
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return task, fmt.Errorf("reading %s: %w", f.RelPath, err)
	}
	task.Input = string(data)
	return task, nil
}

func storeBatchResult(ctx context.Context, a *app, f walker.FileInfo, task study.Task, res *study.Result, save bool, exporter export.Exporter, outDir string) error {
	if save {
		n := res.NewItem(task)
		n.Title = filepath.Base(f.RelPath)
		if _, err := a.library.Save(ctx, n); err != nil {
			return fmt.Errorf("saving: %w", err)
		}
	}
	if exporter == nil {
		return nil
	}

	doc := export.FromResult(task, res)
	doc.Title = filepath.Base(f.RelPath)
	content, err := exporter.Export(doc)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	base := strings.TrimSuffix(filepath.Base(f.RelPath), filepath.Ext(f.RelPath))
	path := filepath.Join(outDir, base+"_"+export.Filename(doc, exporter))
	return os.WriteFile(path, content, 0o644)
}
