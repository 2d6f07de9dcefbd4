package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/mindspark-app/mindspark/internal/export"
	"github.com/mindspark-app/mindspark/internal/library"
)

var savedCmd = &cobra.Command{
	Use:   "saved",
	Short: "Manage saved study results",
	Long:  `List, show, delete, export and import the results kept in the local library.`,
}

var savedListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved results, newest first",
	Args:  cobra.NoArgs,
	RunE:  runSavedList,
}

var savedShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one saved result",
	Args:  cobra.ExactArgs(1),
	RunE:  runSavedShow,
}

var savedDeleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete saved results",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSavedDelete,
}

var savedClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every saved result",
	Args:  cobra.NoArgs,
	RunE:  runSavedClear,
}

var savedExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Write a saved result to a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runSavedExport,
}

var savedImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import results from a JSON array, such as a browser export",
	Args:  cobra.ExactArgs(1),
	RunE:  runSavedImport,
}

func init() {
	savedListCmd.Flags().StringP("query", "q", "", "match title or description")
	savedListCmd.Flags().String("type", "", "only this type, e.g. Summary or Flashcards")
	savedListCmd.Flags().Int("limit", 0, "maximum number of results (0 = all)")
	savedListCmd.Flags().Bool("json", false, "output records as JSON")

	savedClearCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")

	savedExportCmd.Flags().String("format", "txt", "export format: txt, md, html or json")
	savedExportCmd.Flags().String("out", ".", "directory for the exported file")

	savedCmd.AddCommand(savedListCmd, savedShowCmd, savedDeleteCmd, savedClearCmd, savedExportCmd, savedImportCmd)
	rootCmd.AddCommand(savedCmd)
}

func runSavedList(cmd *cobra.Command, args []string) error {
	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	var f library.Filter
	f.Query, _ = cmd.Flags().GetString("query")
	f.Type, _ = cmd.Flags().GetString("type")
	f.Limit, _ = cmd.Flags().GetInt("limit")
	items := a.library.Search(cmd.Context(), f)

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}

	if len(items) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No saved work yet.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tSAVED\tTITLE")
	for _, it := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", it.ID, it.Type, it.Timestamp.Local().Format("2006-01-02 15:04"), it.Title)
	}
	return w.Flush()
}

func runSavedShow(cmd *cobra.Command, args []string) error {
	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	item, err := getItem(cmd, a, args[0])
	if err != nil {
		return err
	}
	out, err := export.MarkdownExporter{}.Export(export.FromItem(item))
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}

func runSavedDelete(cmd *cobra.Command, args []string) error {
	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	for _, id := range args {
		if _, err := getItem(cmd, a, id); err != nil {
			return err
		}
		if _, err := a.library.Delete(cmd.Context(), id); err != nil {
			return fmt.Errorf("deleting %s: %w", id, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
	}
	return nil
}

func runSavedClear(cmd *cobra.Command, args []string) error {
	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		if !isTerminal(cmd.InOrStdin()) {
			return fmt.Errorf("refusing to clear without --yes")
		}
		prompt := promptui.Prompt{
			Label:     fmt.Sprintf("Delete all %d saved results", len(a.library.List(cmd.Context()))),
			IsConfirm: true,
		}
		if _, err := prompt.Run(); err != nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}
	}

	if err := a.library.Clear(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Library cleared.")
	return nil
}

func runSavedExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	e, err := export.ForFormat(format)
	if err != nil {
		return err
	}

	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	item, err := getItem(cmd, a, args[0])
	if err != nil {
		return err
	}
	dir, _ := cmd.Flags().GetString("out")
	path, err := export.WriteFile(dir, export.FromItem(item), e)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", path)
	return nil
}

func runSavedImport(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.library.Import(cmd.Context(), raw)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d records (%d total)\n", n, len(a.library.List(cmd.Context())))
	return nil
}

func getItem(cmd *cobra.Command, a *app, id string) (library.Item, error) {
	item, err := a.library.Get(cmd.Context(), id)
	if errors.Is(err, library.ErrNotFound) {
		return item, fmt.Errorf("no saved result with id %s", id)
	}
	return item, err
}
