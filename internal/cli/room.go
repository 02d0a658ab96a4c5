package cli

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
)

func newRoomCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "room <code>",
		Short: "Show the state of a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := strings.ToUpper(strings.TrimSpace(args[0]))
			if code == "" {
				return fmt.Errorf("room code is required")
			}

			var result Room

			if err := client.Get(cmd.Context(), "/api/v1/rooms/"+url.PathEscape(code), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}
