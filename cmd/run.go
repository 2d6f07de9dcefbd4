package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/mindspark-app/mindspark/internal/config"
	"github.com/mindspark-app/mindspark/internal/export"
	"github.com/mindspark-app/mindspark/internal/imageinput"
	"github.com/mindspark-app/mindspark/internal/progress"
	"github.com/mindspark-app/mindspark/internal/study"
)

var runCmd = &cobra.Command{
	Use:   "run <kind> [text]",
	Short: "Run a study task on text or an image",
	Long: `Runs one study task and prints the result. Kinds: summarize, notes,
proofread, translate, analyze_image, flashcards.

Text comes from the arguments, --file, or stdin. translate needs a
target language; without --language you are asked to pick one from the
configured list. analyze_image needs --image.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringP("language", "l", "", "target language for translate")
	runCmd.Flags().String("image", "", "image file for analyze_image")
	runCmd.Flags().StringP("file", "f", "", "read input text from a file")
	runCmd.Flags().Bool("save", false, "save the result to the library")
	runCmd.Flags().String("export", "", "export the result: txt, md, html or json")
	runCmd.Flags().String("out", ".", "directory for exported files")
	runCmd.Flags().Bool("flashcards", false, "also generate flashcards from the input")
	runCmd.Flags().Bool("json", false, "print the result as JSON")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	kind, err := study.ParseKind(args[0])
	if err != nil {
		return taskError(cmd, err)
	}
	if kind == study.KindChat {
		return fmt.Errorf("chat is interactive; use `mindspark chat`")
	}

	file, _ := cmd.Flags().GetString("file")
	input, err := readInput(cmd, args[1:], file)
	if err != nil {
		return err
	}

	a, err := openApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	task := study.Task{Kind: kind, Input: input}
	task.Language, _ = cmd.Flags().GetString("language")
	if imagePath, _ := cmd.Flags().GetString("image"); imagePath != "" {
		img, err := imageinput.Load(imagePath, a.cfg.MaxImageBytes)
		if err != nil {
			return err
		}
		task.Image = img
	}
	if kind == study.KindTranslate && task.Language == "" {
		if task.Language, err = pickLanguage(cmd, a.cfg); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	res, err := runWithIndicator(ctx, cmd.ErrOrStderr(), a.assistant, task)
	if err != nil {
		return taskError(cmd, err)
	}

	if cards, _ := cmd.Flags().GetBool("flashcards"); cards && kind != study.KindFlashcards {
		res.Flashcards, err = a.assistant.Flashcards(ctx, task.Input)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Notice: %s\n", study.UserMessage(err))
		}
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	if err := printResult(cmd.OutOrStdout(), res, asJSON); err != nil {
		return err
	}

	if save, _ := cmd.Flags().GetBool("save"); save {
		item, err := a.library.Save(ctx, res.NewItem(task))
		if err != nil {
			return fmt.Errorf("saving result: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Saved as %s\n", item.ID)
	}

	if format, _ := cmd.Flags().GetString("export"); format != "" {
		e, err := export.ForFormat(format)
		if err != nil {
			return err
		}
		dir, _ := cmd.Flags().GetString("out")
		path, err := export.WriteFile(dir, export.FromResult(task, res), e)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported to %s\n", path)
	}
	return nil
}

// runWithIndicator runs task while the loading indicator animates on w.
func runWithIndicator(ctx context.Context, w io.Writer, assistant *study.Assistant, task study.Task) (*study.Result, error) {
	if err := task.Validate(); err != nil {
		return nil, err
	}
	ind := progress.StartIndicator(w)
	res, err := assistant.Run(ctx, task)
	ind.Stop(err == nil)
	return res, err
}

func printResult(w io.Writer, res *study.Result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	fmt.Fprintln(w, res.Text)
	if len(res.Flashcards) > 0 && res.Kind != study.KindFlashcards {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Flashcards:")
		fmt.Fprint(w, study.FormatFlashcards(res.Flashcards))
	}
	return nil
}

// pickLanguage asks for a translation target. Without a terminal the
// configured default is used.
func pickLanguage(cmd *cobra.Command, cfg *config.Config) (string, error) {
	if !isTerminal(cmd.InOrStdin()) || len(cfg.Languages) == 0 {
		if cfg.DefaultLanguage == "" {
			return "", fmt.Errorf("%w: translate needs --language", study.ErrInvalidTask)
		}
		return cfg.DefaultLanguage, nil
	}

	cursor := 0
	for i, l := range cfg.Languages {
		if l == cfg.DefaultLanguage {
			cursor = i
		}
	}
	prompt := promptui.Select{
		Label:     "Translate to",
		Items:     cfg.Languages,
		CursorPos: cursor,
	}
	_, lang, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("language selection: %w", err)
	}
	return lang, nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
