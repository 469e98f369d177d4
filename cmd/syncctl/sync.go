package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	// auth online|offline
	var strategy string
	authCmd := &cobra.Command{Use: "auth", Short: "Authentication state transitions"}

	onlineCmd := &cobra.Command{
		Use:   "online",
		Short: "Go cloud-first, migrating data with the chosen strategy",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := client().SetAuthState(cmd.Context(), true, strategy)
			if err != nil {
				return err
			}
			return printJSON(stats)
		},
	}
	offlineCmd := &cobra.Command{
		Use:   "offline",
		Short: "Go local-first, migrating data with the chosen strategy",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := client().SetAuthState(cmd.Context(), false, strategy)
			if err != nil {
				return err
			}
			return printJSON(stats)
		},
	}
	authCmd.PersistentFlags().StringVarP(&strategy, "strategy", "s", "", "Migration strategy (intelligent_merge, migrate_all, cloud_only)")
	authCmd.AddCommand(onlineCmd, offlineCmd)
	rootCmd.AddCommand(authCmd)

	// stats
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show coordinator stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := client().Stats(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(stats)
		},
	}
	rootCmd.AddCommand(statsCmd)

	// verify
	verifyCmd := &cobra.Command{
		Use:   "verify RECORD_ID",
		Short: "Verify a record is durably persisted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client().VerifyPersistence(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, "persisted")
			return nil
		},
	}
	rootCmd.AddCommand(verifyCmd)

	// clear
	var confirmed bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every item and collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				return fmt.Errorf("refusing to wipe data without --yes")
			}
			if err := client().ClearAllData(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, "cleared")
			return nil
		},
	}
	clearCmd.Flags().BoolVarP(&confirmed, "yes", "y", false, "Confirm the wipe")
	rootCmd.AddCommand(clearCmd)

	// health
	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Probe service health",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client().Health(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, "healthy")
			return nil
		},
	}
	rootCmd.AddCommand(healthCmd)
}
