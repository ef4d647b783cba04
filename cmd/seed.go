package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	config "techtrack.com/techtrack/internal/configs"
	model "techtrack.com/techtrack/internal/models"
	repository "techtrack.com/techtrack/internal/repositories"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the standard workflow statuses",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil {
			log.Println(".env file not found, using environment variables")
		}

		cfg := config.Load()
		database := config.New(cfg.DatabaseDSN)
		statusRepo := repository.NewStatusRepository(database)

		ctx := context.Background()

		existing, err := statusRepo.List(ctx)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "statuses already present (%d), nothing to do\n", len(existing))
			return nil
		}

		statuses := []model.Status{
			{Name: "Not assigned", ListPosition: 0, IsActive: true},
			{Name: "In progress", ListPosition: 1, IsActive: true, IsDefault: true},
			{Name: "Paused", ListPosition: 2, IsActive: true},
			{Name: "Canceled", ListPosition: 3},
			{Name: "Completed", ListPosition: 4},
		}
		for i := range statuses {
			if err := statusRepo.Create(ctx, &statuses[i]); err != nil {
				return err
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d statuses\n", len(statuses))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
