package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/livestage-server/internal/callengine"
	"github.com/vovakirdan/livestage-server/internal/callengine/livekit"
)

func newTokenCmd(flags *rootFlags) *cobra.Command {
	var req callengine.GrantRequest

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a media grant and print it as JSON",
		Long: `Mint a media grant using the configured LiveKit credentials.
Identities starting with "viewer-" receive a watch-only grant.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(flags, os.Stderr)
			if err != nil {
				return err
			}

			engine := livekit.New(cfg.LiveKit, livekit.WithLogger(logger))
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()

			info, err := engine.GenerateJoinInfo(ctx, req)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error minting token: %v\n", err)
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		},
	}

	cmd.Flags().StringVar(&req.RoomName, "room", "", "room name")
	cmd.Flags().StringVar(&req.ParticipantName, "identity", "", "participant identity")
	return cmd
}
