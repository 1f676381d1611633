package integration

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dbin-w/courtwatch/pkg/models"
)

func deliveryScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "messaging-cli.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("writing script: %v", err)
	}
	return path
}

func TestDeliverer_SuccessfulDelivery(t *testing.T) {
	d := NewDeliverer(models.DeliveryConfig{Command: "true", Target: "tennis"})

	result, err := d.Deliver(context.Background(), "比赛报告")
	if err != nil {
		t.Fatalf("delivering: %v", err)
	}
	if !result.Delivered {
		t.Error("expected Delivered true on zero exit")
	}
}

func TestDeliverer_NonZeroExitIsANormalFailure(t *testing.T) {
	d := NewDeliverer(models.DeliveryConfig{Command: "false", Target: "tennis"})

	result, err := d.Deliver(context.Background(), "比赛报告")
	if err != nil {
		t.Fatalf("non-zero exit should not be an error: %v", err)
	}
	if result.Delivered {
		t.Error("expected Delivered false on non-zero exit")
	}
	if result.ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", result.ExitCode)
	}
}

func TestDeliverer_PassesMessageAndTarget(t *testing.T) {
	outFile := filepath.Join(t.TempDir(), "args.txt")
	script := deliveryScript(t, `echo "$@" > `+outFile)
	d := NewDeliverer(models.DeliveryConfig{
		Command:     script,
		DefaultArgs: []string{"--profile", "tennis"},
		Target:      "match-reports",
	})

	result, err := d.Deliver(context.Background(), "今日网球复盘")
	if err != nil {
		t.Fatalf("delivering: %v", err)
	}
	if !result.Delivered {
		t.Fatalf("expected success, got %+v", result)
	}

	data, err := os.ReadFile(outFile)
	if err != nil {
		t.Fatalf("reading captured args: %v", err)
	}
	args := string(data)
	for _, want := range []string{
		"--profile tennis",
		"message send",
		"--target match-reports",
		"--message 今日网球复盘",
	} {
		if !strings.Contains(args, want) {
			t.Errorf("CLI args missing %q: %s", want, args)
		}
	}
}

func TestDeliverer_TimeoutIsANormalFailure(t *testing.T) {
	script := deliveryScript(t, "sleep 5")
	d := NewDeliverer(models.DeliveryConfig{Command: script, Target: "tennis", TimeoutSeconds: 1})

	result, err := d.Deliver(context.Background(), "比赛报告")
	if err != nil {
		t.Fatalf("timeout should not be an error: %v", err)
	}
	if result.Delivered {
		t.Error("expected Delivered false on timeout")
	}
	if result.ExitCode != -1 {
		t.Errorf("ExitCode = %d, want -1", result.ExitCode)
	}
	if result.Stderr != "delivery CLI timed out" {
		t.Errorf("Stderr = %q, want timeout marker", result.Stderr)
	}
}

func TestDeliverer_MissingCommandIsAnError(t *testing.T) {
	d := NewDeliverer(models.DeliveryConfig{
		Command: filepath.Join(t.TempDir(), "no-such-cli"),
		Target:  "tennis",
	})

	result, err := d.Deliver(context.Background(), "比赛报告")
	if err == nil {
		t.Fatal("expected an error when the CLI cannot start")
	}
	if result.Delivered {
		t.Error("Delivered must be false when the CLI cannot start")
	}
}

func TestDeliverer_CapturesStderr(t *testing.T) {
	script := deliveryScript(t, `echo "channel not configured" >&2; exit 2`)
	d := NewDeliverer(models.DeliveryConfig{Command: script, Target: "tennis"})

	result, err := d.Deliver(context.Background(), "比赛报告")
	if err != nil {
		t.Fatalf("delivering: %v", err)
	}
	if result.ExitCode != 2 {
		t.Errorf("ExitCode = %d, want 2", result.ExitCode)
	}
	if !strings.Contains(result.Stderr, "channel not configured") {
		t.Errorf("Stderr = %q, want the CLI diagnostics", result.Stderr)
	}
}
