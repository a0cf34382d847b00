package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "assistants.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
assistants:
  docs:
    id: asst_abc123
    title: Docs Assistant
    icon: "📚"
    description: Answers documentation questions.
    llm_txt_url: https://docs.example.com/llms.txt
  support:
    id: asst_def456
    title: Support
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	docs, ok := cfg.Get("docs")
	if !ok {
		t.Fatal("missing docs assistant")
	}
	if docs.ID != "asst_abc123" || docs.LLMTxtURL != "https://docs.example.com/llms.txt" {
		t.Fatalf("unexpected assistant: %+v", docs)
	}
	support, _ := cfg.Get("support")
	if support.LLMTxtURL != "" {
		t.Fatalf("support should have no manifest URL: %+v", support)
	}
}

func TestLoadRejectsBadAssistantID(t *testing.T) {
	path := writeConfig(t, `
assistants:
  docs:
    id: not-an-assistant-id
    title: Docs
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "asst_") {
		t.Fatalf("expected id validation error, got %v", err)
	}
}

func TestLoadRejectsMissingTitle(t *testing.T) {
	path := writeConfig(t, `
assistants:
  docs:
    id: asst_abc123
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected title validation error")
	}
}

func TestLoadRejectsEmptyCatalogue(t *testing.T) {
	path := writeConfig(t, "assistants: {}\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for empty catalogue")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
