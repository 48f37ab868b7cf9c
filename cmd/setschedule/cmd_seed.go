/*
Copyright (C) 2026 dubpixel

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dubpixel/coachella-set-schedule/internal/db"
	"github.com/dubpixel/coachella-set-schedule/internal/showtime"
	"github.com/dubpixel/coachella-set-schedule/internal/store"
)

var seedFilePath string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a schedule definition into the database",
	Long: `Load a YAML schedule file for the configured stage, replacing any
existing definition. Recorded actual start/end times are discarded.

Schedule file format:

  items:
    - name: Doors / Walk-in
      position: 1
      duration: 30m
      break: true
    - name: Opening Act
      position: 2
      duration: 45m

Durations accept Go duration strings ("45m", "1h15m") or whole seconds.

Example:
  setschedule seed --file schedule.yml
`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVarP(&seedFilePath, "file", "f", "schedule.yml", "Path to YAML schedule file")
	rootCmd.AddCommand(seedCmd)
}

// scheduleFile is the on-disk YAML shape consumed by the seed command.
type scheduleFile struct {
	Items []scheduleFileItem `yaml:"items"`
}

type scheduleFileItem struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Position int    `yaml:"position"`
	Duration string `yaml:"duration"`
	Break    bool   `yaml:"break"`
}

func runSeed(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	raw, err := os.ReadFile(seedFilePath)
	if err != nil {
		return fmt.Errorf("read schedule file: %w", err)
	}

	var file scheduleFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parse schedule file: %w", err)
	}
	if len(file.Items) == 0 {
		return fmt.Errorf("schedule file %s contains no items", seedFilePath)
	}

	rows := make([]showtime.SeedRow, 0, len(file.Items))
	for i, item := range file.Items {
		dur, err := parseItemDuration(item.Duration)
		if err != nil {
			return fmt.Errorf("item %d (%s): %w", i+1, item.Name, err)
		}
		rows = append(rows, showtime.SeedRow{
			ID:       item.ID,
			Name:     item.Name,
			Position: item.Position,
			Duration: dur,
			IsBreak:  item.Break,
		})
	}

	database, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close(database)

	if err := store.Migrate(database); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	st := store.New(database, cfg.StageName, logger)
	if err := st.Seed(rows); err != nil {
		return fmt.Errorf("seed schedule: %w", err)
	}

	logger.Info().
		Str("stage", cfg.StageName).
		Int("items", len(rows)).
		Msg("schedule seeded")

	fmt.Printf("Seeded %d items for stage %q from %s\n", len(rows), cfg.StageName, seedFilePath)
	return nil
}

// parseItemDuration accepts Go duration strings or whole seconds.
func parseItemDuration(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, fmt.Errorf("missing duration")
	}
	if dur, err := time.ParseDuration(raw); err == nil {
		return dur, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return 0, fmt.Errorf("invalid duration %q", raw)
}
