package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/kariemSeiam/Hvar-Hub/internal/carrier"
	"github.com/kariemSeiam/Hvar-Hub/internal/clock"
	"github.com/kariemSeiam/Hvar-Hub/internal/config"
	"github.com/kariemSeiam/Hvar-Hub/internal/inventory"
	"github.com/kariemSeiam/Hvar-Hub/internal/migration"
	"github.com/kariemSeiam/Hvar-Hub/internal/observability/logger"
	"github.com/kariemSeiam/Hvar-Hub/internal/observability/metrics"
	"github.com/kariemSeiam/Hvar-Hub/internal/observability/tracing"
	"github.com/kariemSeiam/Hvar-Hub/internal/order"
	"github.com/kariemSeiam/Hvar-Hub/internal/seed"
	"github.com/kariemSeiam/Hvar-Hub/internal/server"
	"github.com/kariemSeiam/Hvar-Hub/internal/serviceaction"
	"github.com/kariemSeiam/Hvar-Hub/internal/unified"
	"github.com/kariemSeiam/Hvar-Hub/pkg/db"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var version = "dev"

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		tracing.Module,
		metrics.Module,
		clock.Module,
		fx.Provide(func() *snowflake.Node {
			node, err := snowflake.NewNode(1)
			if err != nil {
				panic(err)
			}
			return node
		}),
		db.Module,
		fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := migration.RunMigrations(sqlDB, cfg.Database.Driver); err != nil {
				return err
			}
			if cfg.Bootstrap.SeedCatalog {
				return seed.EnsureCatalog(conn)
			}
			return nil
		}),
		inventory.Module,
		order.Module,
		serviceaction.Module,
		carrier.Module,
		unified.Module,
		server.Module,
	)
	app.Run()
}
