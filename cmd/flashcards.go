package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/mindspark-app/mindspark/internal/study"
)

var flashcardsCmd = &cobra.Command{
	Use:   "flashcards [text]",
	Short: "Generate question/answer flashcards",
	Long:  `Generates flashcards from text given as arguments, with --file, or on stdin.`,
	RunE:  runFlashcards,
}

func init() {
	flashcardsCmd.Flags().StringP("file", "f", "", "read input text from a file")
	flashcardsCmd.Flags().Bool("save", false, "save the flashcards to the library")
	flashcardsCmd.Flags().Bool("json", false, "print the cards as JSON")
	rootCmd.AddCommand(flashcardsCmd)
}

func runFlashcards(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")
	input, err := readInput(cmd, args, file)
	if err != nil {
		return err
	}

	a, err := openApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	task := study.Task{Kind: study.KindFlashcards, Input: input}
	res, err := runWithIndicator(ctx, cmd.ErrOrStderr(), a.assistant, task)
	if err != nil {
		return taskError(cmd, err)
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(res.Flashcards); err != nil {
			return err
		}
	} else {
		fmt.Fprint(cmd.OutOrStdout(), study.FormatFlashcards(res.Flashcards))
	}

	if save, _ := cmd.Flags().GetBool("save"); save {
		item, err := a.library.Save(ctx, res.NewItem(task))
		if err != nil {
			return fmt.Errorf("saving flashcards: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Saved as %s\n", item.ID)
	}
	return nil
}
