package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tablechat/internal/config"
)

func setupTest(t *testing.T) {
	t.Helper()
	logger = zap.NewNop()
	cfg = config.DefaultConfig()
	exportPath = ""
	configPath = filepath.Join(t.TempDir(), "config.yaml")
}

func TestRunCommands(t *testing.T) {
	setupTest(t)

	output := captureOutput(t, func() {
		args := []string{"add row 10, 20, 30", "delete row 9", "set row 1 col 2 to 50"}
		if err := runCommands(&cobra.Command{}, args); err != nil {
			t.Fatalf("runCommands returned error: %v", err)
		}
	})

	for _, want := range []string{
		"> add row 10, 20, 30",
		"Added new row with values: 10, 20, 30",
		"1-4",
		"50",
		"AI: off",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, output)
		}
	}
}

func TestRunCommandsExport(t *testing.T) {
	setupTest(t)
	exportPath = filepath.Join(t.TempDir(), "out.xlsx")

	output := captureOutput(t, func() {
		if err := runCommands(&cobra.Command{}, []string{"add column Total"}); err != nil {
			t.Fatalf("runCommands returned error: %v", err)
		}
	})

	if !strings.Contains(output, "Exported 3 rows") {
		t.Fatalf("expected export message, got: %s", output)
	}
	if _, err := os.Stat(exportPath); err != nil {
		t.Fatalf("expected exported file: %v", err)
	}
}

func TestShowStatusNotConfigured(t *testing.T) {
	setupTest(t)

	output := captureOutput(t, func() {
		if err := showStatus(&cobra.Command{}, nil); err != nil {
			t.Fatalf("showStatus returned error: %v", err)
		}
	})

	if !strings.Contains(output, "not_configured") || !strings.Contains(output, "Credential: missing") {
		t.Fatalf("expected not-configured status, got: %s", output)
	}
}

func TestShowStatusNeverPrintsKey(t *testing.T) {
	setupTest(t)
	cfg.LLM.Provider = "openai"
	cfg.LLM.Model = config.DefaultOpenAIModel
	cfg.LLM.APIKey = "sk-live-secret-123"

	output := captureOutput(t, func() {
		if err := showStatus(&cobra.Command{}, nil); err != nil {
			t.Fatalf("showStatus returned error: %v", err)
		}
	})

	if strings.Contains(output, "sk-live-secret-123") {
		t.Fatalf("status leaked the API key: %s", output)
	}
	if !strings.Contains(output, "Credential: present") || !strings.Contains(output, "AI: on") {
		t.Fatalf("expected configured status, got: %s", output)
	}
}

func TestInitConfig(t *testing.T) {
	setupTest(t)

	captureOutput(t, func() {
		if err := initConfig(&cobra.Command{}, nil); err != nil {
			t.Fatalf("initConfig returned error: %v", err)
		}
	})
	if _, err := os.Stat(configPath); err != nil {
		t.Fatalf("expected config file: %v", err)
	}

	if err := initConfig(&cobra.Command{}, nil); err == nil {
		t.Fatal("expected error when the file exists")
	}

	forceInit = true
	defer func() { forceInit = false }()
	captureOutput(t, func() {
		if err := initConfig(&cobra.Command{}, nil); err != nil {
			t.Fatalf("initConfig --force returned error: %v", err)
		}
	})
}

func TestLoadConfigRejectsInvalidFile(t *testing.T) {
	setupTest(t)
	if err := os.WriteFile(configPath, []byte("llm:\n  provider: carrier-pigeon\n"), 0600); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"TABLECHAT_PROVIDER", "GEMINI_API_KEY", "GOOGLE_API_KEY", "OPENAI_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(key, "")
	}

	if _, err := loadConfig(); err == nil {
		t.Fatal("expected validation error for unknown provider")
	}
}

func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	origOut := os.Stdout
	origErr := os.Stderr
	rOut, wOut, _ := os.Pipe()
	rErr, wErr, _ := os.Pipe()
	os.Stdout = wOut
	os.Stderr = wErr

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, rOut)
		_, _ = io.Copy(&buf, rErr)
		done <- buf.String()
	}()

	fn()

	_ = wOut.Close()
	_ = wErr.Close()
	os.Stdout = origOut
	os.Stderr = origErr
	return <-done
}
