package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/daysense/daysense-api/internal/config"
	"github.com/daysense/daysense-api/internal/database"
)

type configListing struct {
	Cors *corsListing `yaml:"cors,omitempty"`
	Rate *rateListing `yaml:"ratelimit,omitempty"`
}

type corsListing struct {
	AllowedOrigins   string `yaml:"allowed_origins"`
	AllowCredentials bool   `yaml:"allow_credentials"`
	MaxAge           int    `yaml:"max_age"`
}

type rateListing struct {
	Rate string `yaml:"rate"`
}

// NewListCmd creates the list command
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the database-backed configuration",
		Long:  "List the stored CORS and rate limit configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			db, err := database.New(cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer func() {
				if err := db.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
				}
			}()

			ctx := context.Background()
			listing := configListing{}

			corsRepo := database.NewCorsConfigRepository(db)
			if c, err := corsRepo.Get(ctx); err != nil {
				return fmt.Errorf("failed to get cors config: %w", err)
			} else if c != nil {
				listing.Cors = &corsListing{
					AllowedOrigins:   c.AllowedOrigins,
					AllowCredentials: c.AllowCredentials,
					MaxAge:           c.MaxAge,
				}
			}

			rateRepo := database.NewRatelimitConfigRepository(db)
			if r, err := rateRepo.Get(ctx); err != nil {
				return fmt.Errorf("failed to get ratelimit config: %w", err)
			} else if r != nil {
				listing.Rate = &rateListing{Rate: r.Rate}
			}

			if listing.Cors == nil && listing.Rate == nil {
				fmt.Println("No configuration stored. Use 'cors set' or 'ratelimit set'.")
				return nil
			}

			out, err := yaml.Marshal(listing)
			if err != nil {
				return fmt.Errorf("failed to render configuration: %w", err)
			}
			fmt.Print(string(out))
			return nil
		},
	}

	return cmd
}
