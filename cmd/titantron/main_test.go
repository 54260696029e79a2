package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	configPath := filepath.Join(dir, "titantron.toml")
	content := fmt.Sprintf("[paths]\nstate_dir = %q\nlog_dir = %q\n",
		filepath.Join(dir, "state"), filepath.Join(dir, "logs"))
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return configPath
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	out, err := runCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("output should mention target path: %q", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config not written: %v", err)
	}

	if _, err := runCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected second init without --overwrite to fail")
	}
}

func TestAddFileAndStatus(t *testing.T) {
	configPath := writeTestConfig(t)

	videoPath := filepath.Join(t.TempDir(), "summer_slam-2019.final.mkv")
	if err := os.WriteFile(videoPath, []byte("not a real mkv"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runCommand(t, "--config", configPath, "add-file", videoPath, "--library", "2")
	if err != nil {
		t.Fatalf("add-file: %v", err)
	}
	if !strings.Contains(out, "Registered video #1") {
		t.Fatalf("unexpected add-file output: %q", out)
	}
	if !strings.Contains(out, "Summer Slam 2019 Final") {
		t.Fatalf("derived title missing from output: %q", out)
	}

	out, err = runCommand(t, "--config", configPath, "status", "1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "never run") {
		t.Fatalf("expected unanalyzed status, got: %q", out)
	}
}

func TestAddFileRejectsUnknownExtension(t *testing.T) {
	configPath := writeTestConfig(t)
	notVideo := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(notVideo, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := runCommand(t, "--config", configPath, "add-file", notVideo); err == nil {
		t.Fatal("expected unsupported extension to be rejected")
	}
}

func TestDeriveTitle(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"/media/main_event-night.one.mkv", "Main Event Night One"},
		{"/media/RAW 2020.mkv", "Raw 2020"},
		{"/media/___.mkv", "Untitled"},
	}
	for _, tc := range cases {
		if got := deriveTitle(tc.in); got != tc.want {
			t.Errorf("deriveTitle(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatTicks(t *testing.T) {
	cases := []struct {
		ticks int64
		want  string
	}{
		{0, "0:00:00.0"},
		{10_000_000, "0:00:01.0"},
		{36_610_000_000 + 5_000_000, "1:01:01.5"},
	}
	for _, tc := range cases {
		if got := formatTicks(tc.ticks); got != tc.want {
			t.Errorf("formatTicks(%d) = %q, want %q", tc.ticks, got, tc.want)
		}
	}
}

func TestParsePhase(t *testing.T) {
	if _, err := parsePhase("visual"); err != nil {
		t.Errorf("visual should parse: %v", err)
	}
	if _, err := parsePhase("everything"); err == nil {
		t.Error("expected unknown phase to fail")
	}
}
