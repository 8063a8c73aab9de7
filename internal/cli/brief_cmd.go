package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/dayspark/core/internal/brief"
)

// briefCmd represents the brief command group
var briefCmd = &cobra.Command{
	Use:   "brief",
	Short: "Brief inspection",
	Long:  `Generate and render a user's brief in the terminal.`,
}

// briefShowCmd renders a user's brief
var briefShowCmd = &cobra.Command{
	Use:   "show <user-id>",
	Short: "Render the brief for a user",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if briefService == nil {
			fmt.Fprintln(os.Stderr, "Error: brief service not initialized")
			os.Exit(1)
		}

		userID, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error: invalid user ID")
			os.Exit(1)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		result, err := briefService.GenerateBrief(ctx, uint(userID))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to generate brief: %v\n", err)
			os.Exit(1)
		}

		if result.Stale {
			fmt.Printf("(stale copy from %s, sources unreachable)\n\n", result.GeneratedAt.Format("2006-01-02 15:04"))
		}
		fmt.Print(brief.FormatSummary(result.Data))
	},
}

// briefRefreshCmd drops the cached brief for a user
var briefRefreshCmd = &cobra.Command{
	Use:   "refresh <user-id>",
	Short: "Drop the cached brief so the next request regenerates",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if briefService == nil {
			fmt.Fprintln(os.Stderr, "Error: brief service not initialized")
			os.Exit(1)
		}

		userID, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error: invalid user ID")
			os.Exit(1)
		}

		if err := briefService.InvalidateBrief(uint(userID)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to invalidate brief: %v\n", err)
			os.Exit(1)
		}

		fmt.Println("Cached brief dropped.")
	},
}

func init() {
	briefCmd.AddCommand(briefShowCmd)
	briefCmd.AddCommand(briefRefreshCmd)
}
