/*
Copyright (C) 2026 dubpixel

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dubpixel/coachella-set-schedule/internal/auth"
)

var (
	tokenOperator string
	tokenTTL      time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an operator token for the configured stage",
	Long: `Issue a signed operator token granting access to the mutation
endpoints (start, end, reset, override, reload, brightness).

Requires SETSCHED_JWT_SIGNING_KEY to be set.

Example:
  setschedule token --operator "stage manager" --ttl 12h
`,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenOperator, "operator", "", "Operator name embedded in the token (required)")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 12*time.Hour, "Token lifetime")
	tokenCmd.MarkFlagRequired("operator")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	if cfg.JWTSigningKey == "" {
		return fmt.Errorf("SETSCHED_JWT_SIGNING_KEY must be set to issue tokens")
	}

	token, err := auth.Issue([]byte(cfg.JWTSigningKey), auth.Claims{
		Operator: tokenOperator,
		Stage:    cfg.StageName,
	}, tokenTTL)
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}

	fmt.Println(token)
	return nil
}
