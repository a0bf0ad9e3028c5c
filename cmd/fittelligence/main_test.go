package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/baalimago/go_away_boilerplate/pkg/testboil"

	"github.com/hupe1980/fittelligence/config"
	"github.com/hupe1980/fittelligence/model"
)

func missingEnv(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "missing.env")
}

func Test_demo_with_mock_provider_runs_all_steps_and_exits_0(t *testing.T) {
	t.Setenv("FITTELLIGENCE_PROVIDER", "mock")

	var status int
	stdout := testboil.CaptureStdout(t, func(t *testing.T) {
		status = run([]string{"-env", missingEnv(t)})
	})

	testboil.FailTestIfDiff(t, status, 0)
	testboil.AssertStringContains(t, stdout, "FitTelligence - Multi-Agent Fitness Coaching System Demo")
	testboil.AssertStringContains(t, stdout, "✅ API credentials found")
	testboil.AssertStringContains(t, stdout, "Using demo data...")
	testboil.AssertStringContains(t, stdout, "Step 1: Reception Agent - Collecting Client Information")
	testboil.AssertStringContains(t, stdout, "Step 5: Head Coach Agent - Integrated Program")
	testboil.AssertStringContains(t, stdout, "✅ Response:\nMock response to: ")
	testboil.AssertStringContains(t, stdout, "Demo Complete!")
}

func Test_demo_with_profile_file(t *testing.T) {
	t.Setenv("FITTELLIGENCE_PROVIDER", "mock")

	path := filepath.Join(t.TempDir(), "client.yaml")
	if err := os.WriteFile(path, []byte("name: Nora Lind\nequipment: \"3\"\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	var status int
	stdout := testboil.CaptureStdout(t, func(t *testing.T) {
		status = run([]string{"-env", missingEnv(t), "-profile", path, "demo"})
	})

	testboil.FailTestIfDiff(t, status, 0)
	testboil.AssertStringContains(t, stdout, "- Name: Nora Lind")
	testboil.AssertStringContains(t, stdout, "- Equipment: Limited equipment (dumbbells, resistance bands)")
	testboil.AssertStringContains(t, stdout, "✓ Created new session: session_")
}

func Test_unavailable_model_fails_every_call(t *testing.T) {
	m := unavailable(config.ModelConfig{Provider: "gemini", Name: "gemini-2.5-flash"}, errors.New("api key is required"))

	for i := 0; i < 2; i++ {
		respCh, errCh := m.Generate(context.Background(), model.Request{})
		for range respCh {
			t.Fatal("expected no responses")
		}
		err := <-errCh
		if err == nil || !strings.Contains(err.Error(), "model unavailable: api key is required") {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	testboil.FailTestIfDiff(t, m.Info().Provider, "gemini")
}

func Test_help_and_unknown_command(t *testing.T) {
	var status int
	stdout := testboil.CaptureStdout(t, func(t *testing.T) {
		status = run([]string{"help"})
	})
	testboil.FailTestIfDiff(t, status, 0)
	testboil.AssertStringContains(t, stdout, "Usage: fittelligence [flags] [command]")

	testboil.CaptureStdout(t, func(t *testing.T) {
		status = run([]string{"dance"})
	})
	testboil.FailTestIfDiff(t, status, 1)
}

func Test_invalid_config_exits_1(t *testing.T) {
	var status int
	testboil.CaptureStdout(t, func(t *testing.T) {
		status = run([]string{"-env", missingEnv(t), "-config", writeConfig(t, "model:\n  provider: carrier-pigeon\n")})
	})
	testboil.FailTestIfDiff(t, status, 1)
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}
