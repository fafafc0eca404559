package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/readgate/internal/edge"
)

var tokenCmd = &cobra.Command{
	Use:   "token <actor>",
	Short: "Mint a bearer token for an actor, signed with server.jwt_secret",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Server.JWTSecret == "" {
			return errors.New("server.jwt_secret is required (READGATE_SERVER_JWT_SECRET)")
		}
		ttl, _ := cmd.Flags().GetDuration("ttl")
		tok, err := edge.MintToken(cfg.Server.JWTSecret, args[0], ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().Duration("ttl", 30*24*time.Hour, "Token lifetime")
}
