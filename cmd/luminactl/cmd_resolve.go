// Copyright (C) 2026 Lumina Home
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lumina-home/lumina/services/resolve/geo"
)

// resolveRequest is the payload for POST /v1/resolve/resolve.
type resolveRequest struct {
	Query    string   `json:"query"`
	MyTeams  []string `json:"my_teams,omitempty"`
	Lat      *float64 `json:"lat,omitempty"`
	Lon      *float64 `json:"lon,omitempty"`
	Location string   `json:"location,omitempty"`
}

// resolveResponse mirrors the server's ResolveResponse.
type resolveResponse struct {
	Resolved     bool    `json:"resolved"`
	Confidence   float64 `json:"confidence"`
	MatchedAlias string  `json:"matched_alias,omitempty"`
	MatchType    string  `json:"match_type,omitempty"`
	Team         *struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		League string `json:"league"`
		Effect string `json:"effect,omitempty"`
	} `json:"team,omitempty"`
	Alternatives []struct {
		ID         string  `json:"id"`
		Name       string  `json:"name"`
		League     string  `json:"league"`
		Confidence float64 `json:"confidence"`
		Reason     string  `json:"reason,omitempty"`
	} `json:"alternatives,omitempty"`
}

func runResolveCommand(cmd *cobra.Command, args []string) {
	query := strings.Join(args, " ")

	payload := resolveRequest{
		Query:    query,
		MyTeams:  myTeams,
		Location: locationFlag,
	}
	// Coordinates are only meaningful as a pair; send them together or not at all.
	if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lon") {
		payload.Lat = &latFlag
		payload.Lon = &lonFlag
	} else if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon") {
		log.Fatalf("--lat and --lon must be given together")
	}

	body := postJSON("/v1/resolve/resolve", payload)
	if jsonOutput {
		fmt.Println(string(body))
		return
	}

	var result resolveResponse
	if err := json.Unmarshal(body, &result); err != nil {
		log.Fatalf("failed to decode resolve response: %v", err)
	}

	if !result.Resolved {
		fmt.Printf("No confident match for %q.\n", query)
		for _, alt := range result.Alternatives {
			fmt.Printf("  maybe: %s (%.2f)\n", alt.Name, alt.Confidence)
		}
		return
	}

	fmt.Printf("%s [%s]\n", result.Team.Name, result.Team.League)
	fmt.Printf("  confidence: %.2f  match: %s", result.Confidence, result.MatchType)
	if result.MatchedAlias != "" {
		fmt.Printf("  via %q", result.MatchedAlias)
	}
	fmt.Println()
	if result.Team.Effect != "" {
		fmt.Printf("  effect: %s\n", result.Team.Effect)
	}
	for _, alt := range result.Alternatives {
		fmt.Printf("  alternative: %s (%.2f)\n", alt.Reason, alt.Confidence)
	}
}

// entitiesResponse mirrors GET /v1/resolve/entities.
type entitiesResponse struct {
	Count    int `json:"count"`
	Entities []struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		League string `json:"league"`
		Effect string `json:"effect,omitempty"`
	} `json:"entities"`
}

func runEntitiesCommand(_ *cobra.Command, _ []string) {
	path := "/v1/resolve/entities"
	if categoryFlag != "" {
		path += "?category=" + url.QueryEscape(categoryFlag)
	}
	body := getJSON(path)
	if jsonOutput {
		fmt.Println(string(body))
		return
	}

	var result entitiesResponse
	if err := json.Unmarshal(body, &result); err != nil {
		log.Fatalf("failed to decode entities response: %v", err)
	}
	for _, e := range result.Entities {
		effect := e.Effect
		if effect == "" {
			effect = "-"
		}
		fmt.Printf("%-32s %-10s %-10s %s\n", e.ID, e.League, effect, e.Name)
	}
	fmt.Printf("%d entities\n", result.Count)
}

// overlayResponse mirrors POST /v1/resolve/overlay.
type overlayResponse struct {
	Applied bool   `json:"applied"`
	Version string `json:"version,omitempty"`
	Added   int    `json:"added"`
	Updated int    `json:"updated"`
	Total   int    `json:"total"`
	Skipped []struct {
		Index  int    `json:"index"`
		Reason string `json:"reason"`
	} `json:"skipped,omitempty"`
}

func runOverlayApplyCommand(_ *cobra.Command, args []string) {
	data, err := os.ReadFile(args[0])
	if err != nil {
		log.Fatalf("failed to read overlay file: %v", err)
	}

	contentType := "application/yaml"
	if strings.EqualFold(filepath.Ext(args[0]), ".json") {
		contentType = "application/json"
	}

	targetURL := getResolveBaseURL() + "/v1/resolve/overlay"
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Post(targetURL, contentType, bytes.NewReader(data))
	if err != nil {
		log.Fatalf("failed to send overlay to %s: %v", targetURL, err)
	}
	body := readBody(resp)

	if resp.StatusCode != http.StatusOK {
		log.Fatalf("overlay rejected (HTTP %d): %s", resp.StatusCode, string(body))
	}

	var result overlayResponse
	if err := json.Unmarshal(body, &result); err != nil {
		log.Fatalf("failed to decode overlay response: %v", err)
	}

	fmt.Printf("Applied overlay %q: %d added, %d updated, %d total entities\n",
		result.Version, result.Added, result.Updated, result.Total)
	for _, s := range result.Skipped {
		fmt.Printf("  skipped record %d: %s\n", s.Index, s.Reason)
	}
}

// runGazetteerCommand looks up a city locally in the bundled gazetteer; it
// does not need a running server.
func runGazetteerCommand(_ *cobra.Command, args []string) {
	gaz, err := geo.DefaultGazetteer()
	if err != nil {
		log.Fatalf("failed to load gazetteer: %v", err)
	}

	city := strings.Join(args, " ")
	coord, ok := gaz.Lookup(city)
	if !ok {
		coord, ok = gaz.MatchName(city)
	}
	if !ok {
		fmt.Printf("%q not found in gazetteer (%d cities).\n", city, gaz.Size())
		os.Exit(1)
	}
	fmt.Printf("%s: %.4f, %.4f\n", city, coord.Lat, coord.Lon)
}

// postJSON sends a JSON POST to the resolve server and returns the response
// body, exiting on transport errors or non-200 statuses.
func postJSON(path string, payload any) []byte {
	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		log.Fatalf("failed to create request body: %v", err)
	}

	targetURL := getResolveBaseURL() + path
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Post(targetURL, "application/json", bytes.NewBuffer(jsonPayload))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: resolve server unavailable at %s\n", targetURL)
		fmt.Fprintf(os.Stderr, "Start it with: ./resolved, or set LUMINA_RESOLVE_URL.\n")
		log.Fatalf("connection failed: %v", err)
	}
	body := readBody(resp)

	if resp.StatusCode != http.StatusOK {
		log.Fatalf("resolve server error (HTTP %d): %s", resp.StatusCode, string(body))
	}
	return body
}

// getJSON issues a GET against the resolve server and returns the body.
func getJSON(path string) []byte {
	targetURL := getResolveBaseURL() + path
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get(targetURL)
	if err != nil {
		log.Fatalf("failed to reach resolve server at %s: %v", targetURL, err)
	}
	body := readBody(resp)

	if resp.StatusCode != http.StatusOK {
		log.Fatalf("resolve server error (HTTP %d): %s", resp.StatusCode, string(body))
	}
	return body
}

func readBody(resp *http.Response) []byte {
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("failed to close response body", "error", err)
		}
	}()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("failed to read response: %v", err)
	}
	return body
}
