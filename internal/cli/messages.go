package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adi-253/qqchat/internal/services"
)

func newListCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent messages with revocations and reactions applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeOut(cmd, app, openStore(app).Views(limit))
		},
	}
	cmd.Flags().IntVar(&limit, "limit", services.ViewLimit, "Maximum messages to show (0 = whole read window)")
	return cmd
}

// Operator revokes skip the sender check.
func newRevokeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revoke <message-id>",
		Short: "Revoke a message as an operator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := openStore(app)
			id := args[0]
			if _, ok := st.Log.Find(id, services.LookupLimit); !ok {
				return writeErr(cmd, fmt.Errorf("%w: %s", services.ErrMessageNotFound, id))
			}
			if err := st.Revocations.Revoke(id); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"id": id, "revoked": true})
		},
	}
	return cmd
}

func newReactCmd(app *App) *cobra.Command {
	var nickname, qq string

	cmd := &cobra.Command{
		Use:   "react <message-id> <emoji>",
		Short: "Toggle an emoji reaction on behalf of a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			author, err := services.ValidateIdentity(nickname, qq)
			if err != nil {
				return writeErr(cmd, err)
			}
			st := openStore(app)
			id, emoji := args[0], args[1]
			if _, ok := st.Log.Find(id, services.LookupLimit); !ok {
				return writeErr(cmd, fmt.Errorf("%w: %s", services.ErrMessageNotFound, id))
			}
			if err := st.Reactions.Toggle(id, emoji, author.Key()); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"id":        id,
				"reactions": st.Reactions.Summarize(id),
			})
		},
	}
	cmd.Flags().StringVar(&nickname, "nickname", "", "Reacting user's nickname")
	cmd.Flags().StringVar(&qq, "qq", "", "Reacting user's QQ number")
	_ = cmd.MarkFlagRequired("nickname")
	_ = cmd.MarkFlagRequired("qq")
	return cmd
}
