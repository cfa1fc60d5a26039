package config

import (
	"testing"

	"github.com/cockroachdb/errors"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SENDER_NAME", "")
	t.Setenv("PREVIEW_ROWS", "not-a-number")
	t.Setenv("FINALIZE_STRICT", "off")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SenderName != "" {
		t.Fatalf("explicit empty sender name should pass through, got %q", cfg.SenderName)
	}
	if cfg.SenderPhone != "010-2890-0086" {
		t.Fatalf("sender phone=%q", cfg.SenderPhone)
	}
	if cfg.PreviewRows != 5 {
		t.Fatalf("preview rows=%d", cfg.PreviewRows)
	}
	if cfg.FinalizeStrict {
		t.Fatal("FINALIZE_STRICT=off should disable strict finalize")
	}
}

func TestRequire(t *testing.T) {
	var cfg Config
	err := cfg.Require("IMAP_HOST", " ")
	if err == nil {
		t.Fatal("expected error")
	}
	if hint := errors.FlattenHints(err); hint == "" {
		t.Fatal("expected a hint")
	}
	if err := cfg.Require("IMAP_HOST", "imap.example.com"); err != nil {
		t.Fatal(err)
	}
}
