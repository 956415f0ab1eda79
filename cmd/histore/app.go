package main

import (
	"fmt"
	"strings"

	"github.com/nyu-vida/histore"
)

const defaultDB = ".histore"

// app holds the open archive shared by every subcommand except init.
type app struct {
	archive *histore.Archive
}

func openApp() (*app, error) {
	path := envOr("HISTORE_DB", defaultDB)
	a, err := histore.Open(path, histore.Options{})
	if err != nil {
		return nil, fmt.Errorf("cannot open archive %q: %w", path, err)
	}
	return &app{archive: a}, nil
}

func (a *app) Close() { a.archive.Close() }

func parseBackend(name string) (histore.Backend, error) {
	switch strings.ToLower(name) {
	case "", "file":
		return histore.BackendFile, nil
	case "bolt":
		return histore.BackendBolt, nil
	case "sqlite":
		return histore.BackendSQLite, nil
	case "memory", "mem":
		return histore.BackendMemory, nil
	default:
		return 0, fmt.Errorf("unknown backend %q (want file, bolt, sqlite or memory)", name)
	}
}

func splitCommaList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
