package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adi-253/qqchat/internal/chatlog"
	"github.com/adi-253/qqchat/internal/config"
	"github.com/adi-253/qqchat/internal/storage"
)

type App struct {
	Dir        string
	PrettyJSON bool
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "chatctl",
		Short:        "Inspect and maintain a qqchat data directory",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Show the latest messages
  chatctl list --limit 20

  # Hide a message regardless of who sent it
  chatctl revoke 3f1c...

  # Delete files past retention now
  chatctl sweep --retention 48h
`),
	}

	cmd.PersistentFlags().StringVar(&app.Dir, "dir", config.FromEnv().DataDir, "Chat data directory (defaults to CHAT_DATA_DIR)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")

	cmd.AddCommand(newListCmd(app))
	cmd.AddCommand(newRevokeCmd(app))
	cmd.AddCommand(newReactCmd(app))
	cmd.AddCommand(newSweepCmd(app))
	cmd.AddCommand(newShardsCmd(app))

	return cmd
}

func openStore(app *App) *chatlog.Store {
	return chatlog.Open(storage.NewRoot(app.Dir))
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	if app.PrettyJSON {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(map[string]any{"data": v})
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
