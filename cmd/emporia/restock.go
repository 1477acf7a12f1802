package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/emporia/emporia/internal/logging"
	"github.com/emporia/emporia/internal/services"
)

func newRestockCmd() *cobra.Command {
	var stock int
	cmd := &cobra.Command{
		Use:   "restock",
		Short: "Set the stock of every product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if stock < 0 {
				return fmt.Errorf("--stock cannot be negative, got %d", stock)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer logging.Shutdown()

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			mgr := services.NewManager(cfg, services.Options{})
			defer mgr.Shutdown(context.Background())
			if err := mgr.Init(ctx); err != nil {
				return fmt.Errorf("failed to initialize services: %w", err)
			}

			n, err := mgr.Catalog().Restock(ctx, stock)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated stock of %d products to %d\n", n, stock)
			return nil
		},
	}
	cmd.Flags().IntVar(&stock, "stock", 50, "Stock level applied to every product")
	return cmd
}
