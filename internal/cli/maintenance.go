package cli

import (
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/adi-253/qqchat/internal/chatlog"
	"github.com/adi-253/qqchat/internal/storage"
)

func newSweepCmd(app *App) *cobra.Command {
	var retention time.Duration

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete shards, side tables and images older than the retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res := chatlog.NewSweeper(storage.NewRoot(app.Dir), retention).Sweep()
			return writeOut(cmd, app, map[string]any{
				"shards":      res.Shards,
				"sideFiles":   res.SideFiles,
				"attachments": res.Attachments,
				"tempFiles":   res.TempFiles,
				"total":       res.Total(),
			})
		},
	}
	cmd.Flags().DurationVar(&retention, "retention", chatlog.DefaultRetention, "Delete files last modified before now minus this")
	return cmd
}

type shardInfo struct {
	Index    int    `json:"index"`
	Name     string `json:"name"`
	Messages int    `json:"messages"`
	Size     string `json:"size"`
	Modified string `json:"modified"`
}

func newShardsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shards",
		Short: "List shard files, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr := openStore(app).Log.Shards()
			out := []shardInfo{}
			for _, s := range mgr.List() {
				info := shardInfo{
					Index:    s.Index,
					Name:     s.Name(),
					Messages: len(mgr.Load(s)),
				}
				if fi, err := os.Stat(s.Path); err == nil {
					info.Size = humanize.IBytes(uint64(fi.Size()))
					info.Modified = humanize.Time(fi.ModTime())
				}
				out = append(out, info)
			}
			return writeOut(cmd, app, out)
		},
	}
	return cmd
}
