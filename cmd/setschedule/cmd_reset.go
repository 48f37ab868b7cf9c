/*
Copyright (C) 2026 dubpixel

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dubpixel/coachella-set-schedule/internal/db"
	"github.com/dubpixel/coachella-set-schedule/internal/store"
)

var resetForce bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear all recorded actual times for the configured stage",
	Long: `Clear recorded actual start/end times, returning every item to
pending. The schedule definition itself is untouched.

Use this between show days when the same running order repeats.

Examples:
  # Interactive reset (will prompt for confirmation)
  setschedule reset

  # Force reset without confirmation
  setschedule reset --force
`,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().BoolVarP(&resetForce, "force", "f", false, "Skip confirmation prompt")
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	if !resetForce {
		fmt.Printf("This will clear all recorded times for stage %q. The schedule definition is kept.\n", cfg.StageName)
		fmt.Print("Type 'yes' to confirm: ")
		reader := bufio.NewReader(os.Stdin)
		response, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		if strings.TrimSpace(strings.ToLower(response)) != "yes" {
			fmt.Println("Reset cancelled.")
			return nil
		}
	}

	database, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close(database)

	st := store.New(database, cfg.StageName, logger)
	if err := st.ClearActuals(); err != nil {
		return fmt.Errorf("clear recorded times: %w", err)
	}

	logger.Info().Str("stage", cfg.StageName).Msg("recorded times cleared")
	fmt.Printf("Cleared recorded times for stage %q.\n", cfg.StageName)
	return nil
}
