package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/dayspark/core/internal/api/middleware"
	"github.com/dayspark/core/internal/cache"
	"github.com/dayspark/core/internal/config"
	"github.com/dayspark/core/internal/services"
)

var (
	db            *gorm.DB
	cfg           *config.Config
	apiKeyManager *middleware.APIKeyManager
	userService   *services.UserService
	briefService  *services.BriefService
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "dayspark",
	Short: "Dayspark daily brief service",
	Long: `Dayspark aggregates email threads and calendar events from your
linked accounts into a single ranked daily brief.

The command line tool provides:
  - Key management: show and reset the API key
  - User management: create users, list users, reset passwords
  - Brief inspection: render a user's brief in the terminal

Examples:
  dayspark key show          # show the current API key
  dayspark key reset         # reset the API key
  dayspark user create       # create a new user
  dayspark user list         # list all users
  dayspark user reset-pwd    # reset a user's password
  dayspark brief show 1      # render the brief for user 1`,
}

// Execute runs the CLI with the provided database and config
func Execute(database *gorm.DB, config *config.Config) {
	db = database
	cfg = config

	var err error
	apiKeyManager, err = middleware.NewAPIKeyManager(cfg.DataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot initialize API key manager: %v\n", err)
		os.Exit(1)
	}

	userService = services.NewUserService(db)
	accountService := services.NewAccountService(db, cfg.GetEncryptionKey())
	settingsService := services.NewSettingsService(db)
	briefCache := cache.New(cache.NewGormStore(db), cfg.CacheTTL())
	briefService = services.NewBriefService(db, briefCache, accountService, settingsService)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(keyCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(briefCmd)
}
