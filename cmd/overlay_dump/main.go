// Copyright (C) 2026 Lumina Home
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// overlay_dump inspects the resolve server's overlay persistence store.
//
// The resolve server persists the last applied catalog overlay in BadgerDB
// so edits survive restarts. This tool opens the store read-only and prints
// a human-readable summary of each stored record: version, apply time, raw
// size, and the entity records the overlay document carries.
//
// Usage:
//
//	overlay_dump [--path /path/to/state/dir]
//
// If --path is not given, reads LUMINA_STATE_DIR from the environment,
// falling back to ~/.lumina/resolved.
//
// Exit codes:
//
//	0 — success (including "empty store" which prints a message and exits 0)
//	1 — error opening or reading the database
package main

import (
	"bytes"
	"encoding/gob"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	dgbadger "github.com/dgraph-io/badger/v4"

	"github.com/lumina-home/lumina/services/resolve/catalog"
)

// overlayKeyPrefix must match overlay/store.go exactly.
const overlayKeyPrefix = "resolve/overlay/"

// storedRecord mirrors overlay.Record for gob decoding.
type storedRecord struct {
	Version   string
	Data      []byte
	AppliedAt time.Time
}

func main() {
	pathFlag := flag.String("path", "", "Path to the server state directory (overrides LUMINA_STATE_DIR env var)")
	flag.Parse()

	dbPath := *pathFlag
	if dbPath == "" {
		dbPath = os.Getenv("LUMINA_STATE_DIR")
	}
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			fatalf("cannot resolve home directory: %v", err)
		}
		dbPath = filepath.Join(home, ".lumina", "resolved")
	}

	fmt.Printf("Overlay store path: %s\n", dbPath)

	// Check existence before trying to open — gives a cleaner error message
	// than BadgerDB's "no such file or directory" buried in a long error.
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Println("State directory does not exist. The server has not yet persisted an overlay.")
		fmt.Println("Apply one with: luminactl overlay apply overlay.yaml")
		os.Exit(0)
	}

	// Open read-only so a running server keeps its lock semantics intact.
	opts := dgbadger.DefaultOptions(dbPath).
		WithLogger(nil). // suppress BadgerDB internal logs
		WithReadOnly(true)

	db, err := dgbadger.Open(opts)
	if err != nil {
		fatalf("open BadgerDB at %s: %v", dbPath, err)
	}
	defer func() { _ = db.Close() }()

	type entry struct {
		key       string
		rawSize   int
		record    storedRecord
		decodeErr error
	}

	var entries []entry

	err = db.View(func(txn *dgbadger.Txn) error {
		opts := dgbadger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(overlayKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()

			var e entry
			e.key = string(item.Key())

			raw, err := item.ValueCopy(nil)
			if err != nil {
				e.decodeErr = fmt.Errorf("copy value: %w", err)
				entries = append(entries, e)
				continue
			}
			e.rawSize = len(raw)

			if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&e.record); err != nil {
				e.decodeErr = fmt.Errorf("gob decode: %w", err)
			}

			entries = append(entries, e)
		}
		return nil
	})
	if err != nil {
		fatalf("read BadgerDB: %v", err)
	}

	if len(entries) == 0 {
		fmt.Println("\nNo overlay records found.")
		fmt.Println("The server has opened the store but no overlay has been applied yet.")
		os.Exit(0)
	}

	fmt.Printf("\nFound %d overlay record%s:\n", len(entries), plural(len(entries), "", "s"))
	fmt.Println(strings.Repeat("─", 80))

	for i, e := range entries {
		fmt.Printf("\n[%d] Key:        %s\n", i+1, e.key)
		fmt.Printf("    Raw size:   %s\n", formatBytes(e.rawSize))

		if e.decodeErr != nil {
			fmt.Printf("    DECODE ERROR: %v\n", e.decodeErr)
			continue
		}

		fmt.Printf("    Version:    %s\n", orDash(e.record.Version))
		fmt.Printf("    Applied:    %s (%s ago)\n",
			e.record.AppliedAt.Format("2006-01-02 15:04:05 MST"),
			time.Since(e.record.AppliedAt).Round(time.Second),
		)

		// Reparse the stored document so the summary reflects what the
		// server would apply on its next restart.
		ov, parseErr := catalog.ParseOverlay(e.record.Data)
		if parseErr != nil {
			fmt.Printf("    PARSE ERROR: %v\n", parseErr)
			continue
		}

		fmt.Printf("    Entities:   %d record%s\n", len(ov.Entities), plural(len(ov.Entities), "", "s"))
		for _, ent := range ov.Entities {
			aliases := ""
			if len(ent.Aliases) > 0 {
				aliases = "  [" + strings.Join(ent.Aliases, ", ") + "]"
			}
			fmt.Printf("      %-32s %-10s %s%s\n", ent.ID, ent.Category, ent.Name, aliases)
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("─", 80))
	fmt.Printf("Summary: %d record%s, store path: %s\n",
		len(entries), plural(len(entries), "", "s"), dbPath)
}

// orDash substitutes "-" for empty strings in aligned output.
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// formatBytes formats a byte count as a human-readable string.
func formatBytes(n int) string {
	switch {
	case n >= 1024*1024:
		return fmt.Sprintf("%.1f MB (%d bytes)", float64(n)/1024/1024, n)
	case n >= 1024:
		return fmt.Sprintf("%.1f KB (%d bytes)", float64(n)/1024, n)
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}

// plural returns singular or plural suffix based on count.
func plural(n int, singular, pluralSuffix string) string {
	if n == 1 {
		return singular
	}
	return pluralSuffix
}

// fatalf prints to stderr and exits 1.
func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "overlay_dump: "+format+"\n", args...)
	os.Exit(1)
}
