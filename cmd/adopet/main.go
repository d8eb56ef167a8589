package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/adopet/internal/clock"
	"github.com/smallbiznis/adopet/internal/config"
	"github.com/smallbiznis/adopet/internal/migration"
	"github.com/smallbiznis/adopet/internal/observability"
	"github.com/smallbiznis/adopet/internal/seed"
	"github.com/smallbiznis/adopet/internal/server"
	"github.com/smallbiznis/adopet/pkg/db"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"gorm.io/gorm"
)

var (
	nodeID        int64
	rollbackSteps int
)

func init() {
	rootCmd.PersistentFlags().Int64Var(&nodeID, "node", 1, "Snowflake node id of this instance")

	migrateCmd.Flags().IntVar(&rollbackSteps, "down", 0, "Revert this many postgres migrations instead of applying")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}

var rootCmd = &cobra.Command{
	Use:   "adopet",
	Short: "Adopet serves the shelter and adoption API",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Run: func(cmd *cobra.Command, args []string) {
		fx.New(
			config.Module,
			observability.Module,
			fx.Provide(RegisterSnowflake),
			db.Module,
			clock.Module,
			migration.Module,
			server.Module,
		).Run()
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply schema migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		if rollbackSteps > 0 {
			return runOnce(func(conn *gorm.DB) error {
				return migration.Rollback(conn, rollbackSteps)
			})
		}
		return runOnce(migration.Run)
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the species, help type and global category catalogs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnce(seed.EnsureCatalogs)
	},
}

// runOnce boots the database layer, applies fn and shuts down.
func runOnce(fn func(*gorm.DB) error) error {
	var runErr error
	app := fx.New(
		config.Module,
		observability.Module,
		db.Module,
		fx.WithLogger(func() fxevent.Logger { return fxevent.NopLogger }),
		fx.Invoke(func(conn *gorm.DB) {
			runErr = fn(conn)
		}),
	)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := app.Start(ctx); err != nil {
		return err
	}
	if err := app.Stop(ctx); err != nil {
		return err
	}
	return runErr
}

func RegisterSnowflake() (*snowflake.Node, error) {
	return snowflake.NewNode(nodeID)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
