package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/projecthub/backend/internal/config"
	"github.com/projecthub/backend/internal/database"
	"github.com/projecthub/backend/internal/models"
	"github.com/projecthub/backend/pkg/logger"
	"github.com/projecthub/backend/pkg/utils"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// openDB connects with the same env-driven config as the server.
func openDB() (*gorm.DB, error) {
	_ = godotenv.Load()
	logger.Init()

	cfg := config.Load()
	db, err := database.Connect(cfg.DB, cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return db, nil
}

var rootCmd = &cobra.Command{
	Use:           "hubctl",
	Short:         "ProjectHub server administration",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin <username> <email> <password>",
	Short: "Create an admin account",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}

		username := strings.TrimSpace(args[0])
		email := strings.ToLower(strings.TrimSpace(args[1]))

		hash, err := utils.HashPassword(args[2])
		if err != nil {
			return fmt.Errorf("hashing password: %w", err)
		}

		user := models.User{
			Username:     username,
			Email:        email,
			PasswordHash: hash,
			Role:         models.UserRoleAdmin,
		}
		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("creating admin: %w", err)
		}

		fmt.Printf("Admin %s created (%s)\n", user.Username, user.ID)
		return nil
	},
}

var promoteCmd = &cobra.Command{
	Use:   "promote <username>",
	Short: "Promote an existing user to admin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}

		result := db.Model(&models.User{}).
			Where("username = ?", strings.TrimSpace(args[0])).
			Update("role", models.UserRoleAdmin)
		if result.Error != nil {
			return fmt.Errorf("promoting user: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("user %q not found", args[0])
		}

		fmt.Printf("%s is now an admin\n", args[0])
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print row counts for the main tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}

		tables := []struct {
			name  string
			model interface{}
		}{
			{"users", &models.User{}},
			{"friendships", &models.Friendship{}},
			{"friend_requests", &models.FriendRequest{}},
			{"projects", &models.Project{}},
			{"project_members", &models.ProjectMember{}},
			{"project_files", &models.ProjectFile{}},
			{"checkins", &models.Checkin{}},
			{"comments", &models.Comment{}},
			{"activities", &models.Activity{}},
		}

		for _, t := range tables {
			var count int64
			if err := db.Model(t.model).Count(&count).Error; err != nil {
				return fmt.Errorf("counting %s: %w", t.name, err)
			}
			fmt.Printf("%-16s %d\n", t.name, count)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createAdminCmd)
	rootCmd.AddCommand(promoteCmd)
	rootCmd.AddCommand(statsCmd)
}
