package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/yz4230/deployboard/internal/repository"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove every deploy record and project from all storage tiers",
	RunE: func(cmd *cobra.Command, args []string) error {
		applyStorageFlags(cmd)

		chain, err := repository.Open(appConfig.RepositoryOptions())
		if err != nil {
			return err
		}
		defer chain.Shutdown()

		ctx := log.Logger.WithContext(cmd.Context())
		n, err := chain.Clear(ctx)
		if err != nil {
			log.Error().Err(err).Msg("clean failed")
			return err
		}
		log.Info().Str("backends", chain.Name()).Str("mode", appConfig.Mode()).Int("cleared", n).Msg("cleaned")
		fmt.Fprintln(cmd.OutOrStdout(), n)
		return nil
	},
}

func init() {
	addStorageFlags(cleanCmd)
}
