package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mindspark-app/mindspark/internal/chat"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with Sparky, the AI study advisor",
	Long: `Starts an interactive conversation. Replies stream as they arrive;
Ctrl-C stops the current reply. Type /exit to leave. With the sqlite
backend the conversation is stored and can be resumed with --session.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().String("session", "", "resume a stored conversation")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := openApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	manager := a.chatManager()

	var sess *chat.Session
	if id, _ := cmd.Flags().GetString("session"); id != "" {
		if sess, err = manager.Get(ctx, id); err != nil {
			return fmt.Errorf("resuming session %s: %w", id, err)
		}
	} else {
		sess = manager.New()
	}

	out := cmd.OutOrStdout()
	for _, e := range sess.Transcript() {
		printEntry(out, e)
	}
	if a.db != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "(session %s)\n", sess.ID())
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/exit", "/quit":
			return nil
		}

		if err := chatTurn(ctx, out, sess, line); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// chatTurn sends one message and streams the reply to out. An interrupt
// cancels the reply but not the conversation.
func chatTurn(ctx context.Context, out io.Writer, sess *chat.Session, text string) error {
	replyCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	sub, err := sess.Send(replyCtx, text)
	if err != nil {
		if errors.Is(err, chat.ErrEmptyMessage) {
			return nil
		}
		return err
	}

	fmt.Fprint(out, "Sparky: ")
	for delta := range sub.Deltas() {
		fmt.Fprint(out, delta)
	}
	err = sub.Wait()
	fmt.Fprintln(out)

	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(out, "(stopped)")
	default:
		if verbose {
			fmt.Fprintf(out, "%s (%v)\n", chat.ErrorMessage, err)
		} else {
			fmt.Fprintln(out, chat.ErrorMessage)
		}
	}
	return nil
}

func printEntry(w io.Writer, e chat.Entry) {
	if e.Text == "" {
		return
	}
	if e.Role == chat.RoleModel {
		fmt.Fprintf(w, "Sparky: %s\n", e.Text)
		return
	}
	fmt.Fprintf(w, "You: %s\n", e.Text)
}
