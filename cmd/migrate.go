package cmd

import (
	"context"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/leave-management/db"
	activityDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/activity"
	leaveDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/leave"
	notificationDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/notification"
	userDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/user"
)

var (
	migrateCmd = &cobra.Command{
		RunE:  runMigration,
		Use:   "migrate",
		Short: "to run the embedded sql migrations under db/migrations",
	}
	migrateRollback bool
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "to rollback the latest version of sql migration")
}

func runMigration(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Fatal(err)
	}

	// the SQL files are postgres dialect; local sqlite databases get the
	// schema from the gorm models instead
	if cfg.Database.DriverName() == "sqlite" {
		if migrateRollback {
			log.Fatal("migrate: rollback is not supported for sqlite")
		}
		gormDB, sqlxDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("migrate: failed to open DB: %v\n", err)
		}
		defer sqlxDB.Close()

		if err := gormDB.AutoMigrate(
			&userDatamodel.User{},
			&leaveDatamodel.Leave{},
			&leaveDatamodel.History{},
			&notificationDatamodel.Notification{},
			&activityDatamodel.ActivityLog{},
		); err != nil {
			log.Fatalf("automigrate: %v", err)
		}
		return nil
	}

	sqlDB, err := goose.OpenDBWithDriver("pgx", cfg.Database.Source)
	if err != nil {
		log.Fatalf("goose: failed to open DB: %v\n", err)
	}
	defer sqlDB.Close()

	goose.SetBaseFS(db.Migrations)
	goose.SetTableName("schema_migrations")

	command := "up"
	if migrateRollback {
		command = "down"
	}
	if err := goose.RunContext(ctx, command, sqlDB, db.MigrationsDir); err != nil {
		log.Fatalf("goose %s: %v", command, err)
	}

	return nil
}
