// Package testutil provides the shared ARXML fixtures for tests.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"autosar/internal/loader"
)

// Fixture names under internal/parser/testdata.
const (
	SensorV3 = "sensor_v3.arxml"
	SensorV4 = "sensor_v4.arxml"
)

// FixturePath returns the absolute path of a fixture document.
func FixturePath(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(getFixturesRoot(t), name)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Fixture not found: %s", path)
	}
	return path
}

// CopyFixture copies a fixture to dir/rel and returns the new path.
func CopyFixture(t *testing.T, name, dir, rel string) string {
	t.Helper()
	data, err := os.ReadFile(FixturePath(t, name))
	if err != nil {
		t.Fatalf("Failed to read fixture: %v", err)
	}
	dst := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
	return dst
}

// LoadFixture runs a load session over one fixture with default config.
func LoadFixture(t *testing.T, name string) *loader.Result {
	t.Helper()
	res, err := loader.New(nil, nil).Load(context.Background(), FixturePath(t, name))
	if err != nil {
		t.Fatalf("Failed to load %s: %v", name, err)
	}
	return res
}

// getFixturesRoot returns the absolute path to internal/parser/testdata.
func getFixturesRoot(t *testing.T) string {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get caller information")
	}

	// internal/testutil -> internal/parser/testdata
	root := filepath.Join(filepath.Dir(filepath.Dir(thisFile)), "parser", "testdata")
	if _, err := os.Stat(root); os.IsNotExist(err) {
		t.Fatalf("Fixtures root not found: %s", root)
	}
	return root
}
