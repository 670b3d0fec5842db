/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package cli implements the r1sync command line.
package cli

import (
	"flag"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
)

// Dracula theme colors.
const (
	draculaCyan    = "#8BE9FD"
	draculaGreen   = "#50FA7B"
	draculaRed     = "#FF5555"
	draculaYellow  = "#F1FA8C"
	draculaComment = "#6272A4"
)

func newLogStyles() logStyles {
	return logStyles{
		info: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaCyan)),
		success: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaGreen)),
		warning: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaYellow)),
		error: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaRed)).
			Bold(true),
		muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaComment)),
	}
}

// SubcommandHandler defines the interface for parsing subcommand flags.
type SubcommandHandler interface {
	Parse(args []string, cfg *CmdConfig) error
}

func newFlagSet(name string, cfg *CmdConfig) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&cfg.ConfigFile, "config", "", "path to r1sync.yaml")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "reconcile into an in-memory inventory")

	return fs
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: %q", errInvalidID, s)
	}

	return id, nil
}

// RunHandler handles flags for the run subcommand.
type RunHandler struct{}

// Parse processes the command-line arguments for the run subcommand.
func (RunHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := newFlagSet("run", cfg)
	fs.BoolVar(&cfg.All, "all", false, "sync every enabled tenant config")
	fs.Int64Var(&cfg.TenantID, "tenant-id", 0, "inventory tenant id to sync")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing run flags: %w", err)
	}

	cfg.Args = fs.Args()

	if len(cfg.Args) > 0 {
		id, err := parseID(cfg.Args[0])
		if err != nil {
			return err
		}

		cfg.ID = id
	}

	if cfg.TenantID < 0 {
		return fmt.Errorf("%w: tenant-id %d", errInvalidID, cfg.TenantID)
	}

	targeted := cfg.ID != 0 || cfg.TenantID != 0

	switch {
	case cfg.All && targeted:
		return errTargetConflict
	case !cfg.All && !targeted:
		return errRunTarget
	}

	return nil
}

// RefreshVenuesHandler handles flags for the refresh-venues subcommand.
type RefreshVenuesHandler struct{}

// Parse processes the command-line arguments for the refresh-venues subcommand.
func (RefreshVenuesHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := newFlagSet("refresh-venues", cfg)

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing refresh-venues flags: %w", err)
	}

	cfg.Args = fs.Args()
	if len(cfg.Args) == 0 {
		return errRequiresID
	}

	id, err := parseID(cfg.Args[0])
	if err != nil {
		return err
	}

	cfg.ID = id

	return nil
}

// ServeHandler handles flags for the serve subcommand.
type ServeHandler struct{}

// Parse processes the command-line arguments for the serve subcommand.
func (ServeHandler) Parse(args []string, cfg *CmdConfig) error {
	if err := newFlagSet("serve", cfg).Parse(args); err != nil {
		return fmt.Errorf("parsing serve flags: %w", err)
	}

	return nil
}

// MigrateHandler handles flags for the migrate subcommand.
type MigrateHandler struct{}

// Parse processes the command-line arguments for the migrate subcommand.
func (MigrateHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&cfg.ConfigFile, "config", "", "path to r1sync.yaml")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing migrate flags: %w", err)
	}

	return nil
}

// VersionHandler handles the version subcommand.
type VersionHandler struct{}

// Parse rejects any argument to version.
func (VersionHandler) Parse(args []string, _ *CmdConfig) error {
	if len(args) > 0 {
		return fmt.Errorf("%w: version takes no arguments", errUnknownCommand)
	}

	return nil
}

var subcommands = map[string]SubcommandHandler{
	"run":            RunHandler{},
	"refresh-venues": RefreshVenuesHandler{},
	"serve":          ServeHandler{},
	"migrate":        MigrateHandler{},
	"version":        VersionHandler{},
}

// ParseFlags parses the arguments following the program name.
func ParseFlags(args []string) (*CmdConfig, error) {
	cfg := &CmdConfig{Args: args}

	if len(args) == 0 {
		cfg.Help = true
		return cfg, nil
	}

	switch args[0] {
	case "help", "-h", "-help", "--help":
		cfg.Help = true
		return cfg, nil
	}

	cfg.SubCmd = args[0]

	handler, ok := subcommands[cfg.SubCmd]
	if !ok {
		return cfg, fmt.Errorf("%w: %s", errUnknownCommand, cfg.SubCmd)
	}

	if err := handler.Parse(args[1:], cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}
