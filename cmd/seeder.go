package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/auth"
	coreuser "github.com/frahmantamala/leave-management/internal/core/user"
	userpostgres "github.com/frahmantamala/leave-management/internal/user/postgres"
	"github.com/frahmantamala/leave-management/pkg/logger"
)

var seedPassword string

type seedUser struct {
	Email   string
	Name    string
	Role    coreuser.Role
	Manager string
	Days    int
}

// managers come before the people reporting to them
var seedUsers = []seedUser{
	{Email: "admin@school.test", Name: "Office Admin", Role: coreuser.RoleAdmin, Days: 25},
	{Email: "head@school.test", Name: "Head Teacher", Role: coreuser.RoleManager, Days: 25},
	{Email: "anna@school.test", Name: "Anna Becker", Role: coreuser.RoleTeacher, Manager: "head@school.test", Days: 25},
	{Email: "ben@school.test", Name: "Ben Fischer", Role: coreuser.RoleTeacher, Manager: "head@school.test", Days: 20},
	{Email: "clara@school.test", Name: "Clara Wolf", Role: coreuser.RoleTeacher, Manager: "head@school.test", Days: 30},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample users",
	Long:  `Seed the database with an admin, a manager and teachers reporting to the manager for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		lg := logger.LoggerWrapper()

		gormDB, sqlxDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sqlxDB.Close()

		repo := userpostgres.NewUserRepository(gormDB)
		hasher := auth.NewService(repo, nil, cfg.Security.BCryptCost, lg)

		hash, err := hasher.HashPassword(seedPassword)
		if err != nil {
			log.Fatalf("failed to hash password: %v", err)
		}

		ctx := context.Background()
		ids := make(map[string]int64, len(seedUsers))
		for _, su := range seedUsers {
			existing, err := repo.GetByEmail(ctx, su.Email)
			if err == nil {
				fmt.Println("user already exists:", su.Email)
				ids[su.Email] = existing.ID
				continue
			}
			if !errors.Is(err, internal.ErrUserNotFound) {
				log.Fatalf("failed to look up %s: %v", su.Email, err)
			}

			u := &coreuser.User{
				Email:          su.Email,
				Name:           su.Name,
				PasswordHash:   hash,
				Role:           su.Role,
				TotalLeaveDays: su.Days,
				IsActive:       true,
			}
			if su.Manager != "" {
				managerID, ok := ids[su.Manager]
				if !ok {
					log.Fatalf("manager %s of %s is not seeded", su.Manager, su.Email)
				}
				u.ManagerID = &managerID
			}

			if err := repo.Create(ctx, u); err != nil {
				log.Fatalf("failed to insert %s: %v", su.Email, err)
			}
			ids[su.Email] = u.ID
			fmt.Printf("Seeded %s user: %s\n", su.Role, su.Email)
		}

		fmt.Println("Users seeded successfully")
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedPassword, "password", "password", "password given to every seeded user")
}
