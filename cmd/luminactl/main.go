// Copyright (C) 2026 Lumina Home
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command luminactl is the command-line client for the Lumina resolve server.
//
// Usage:
//
//	luminactl resolve "go chiefs"
//	luminactl resolve "my team" --team "royals" --team "seahawks"
//	luminactl resolve "kings game" --lat 34.05 --lon -118.24
//	luminactl entities --category NFL
//	luminactl overlay apply overlay.yaml
//	luminactl gazetteer "st louis"
//
// The server address defaults to http://localhost:8080 and can be overridden
// with LUMINA_RESOLVE_URL.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// Flag values shared across subcommands.
var (
	myTeams      []string
	latFlag      float64
	lonFlag      float64
	locationFlag string
	categoryFlag string
	jsonOutput   bool
)

// getResolveBaseURL returns the resolve server base URL, honoring the
// LUMINA_RESOLVE_URL override.
func getResolveBaseURL() string {
	if url := os.Getenv("LUMINA_RESOLVE_URL"); url != "" {
		return strings.TrimRight(url, "/")
	}
	return "http://localhost:8080"
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "luminactl",
		Short: "Client for the Lumina entity resolution server",
	}

	resolveCmd := &cobra.Command{
		Use:   "resolve [query]",
		Short: "Resolve free text to a team or holiday entity",
		Args:  cobra.MinimumNArgs(1),
		Run:   runResolveCommand,
	}
	resolveCmd.Flags().StringArrayVar(&myTeams, "team", nil, "Saved favorite team (repeatable)")
	resolveCmd.Flags().Float64Var(&latFlag, "lat", 0, "Latitude for geographic disambiguation")
	resolveCmd.Flags().Float64Var(&lonFlag, "lon", 0, "Longitude for geographic disambiguation")
	resolveCmd.Flags().StringVar(&locationFlag, "location", "", "Free-text location (used when no coordinates)")
	resolveCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the raw JSON response")

	entitiesCmd := &cobra.Command{
		Use:   "entities",
		Short: "List the live entity catalog",
		Run:   runEntitiesCommand,
	}
	entitiesCmd.Flags().StringVar(&categoryFlag, "category", "", "Filter by category (NFL, MLB, holiday, ...)")
	entitiesCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the raw JSON response")

	overlayCmd := &cobra.Command{
		Use:   "overlay",
		Short: "Manage catalog overlays",
	}
	overlayCmd.AddCommand(&cobra.Command{
		Use:   "apply [file]",
		Short: "Apply a catalog overlay file (YAML or JSON)",
		Args:  cobra.ExactArgs(1),
		Run:   runOverlayApplyCommand,
	})

	gazetteerCmd := &cobra.Command{
		Use:   "gazetteer [city]",
		Short: "Look up a city in the bundled gazetteer",
		Args:  cobra.MinimumNArgs(1),
		Run:   runGazetteerCommand,
	}

	rootCmd.AddCommand(resolveCmd, entitiesCmd, overlayCmd, gazetteerCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
