package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/odesolve/internal/config"
	"github.com/spf13/cobra"
)

func parsedCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	preset, configFile, params, initState = "", "", nil, nil
	cmd := &cobra.Command{Use: "test"}
	addRunFlags(cmd)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatal(err)
	}
	return cmd
}

func TestBuildConfigFlags(t *testing.T) {
	cmd := parsedCommand(t, "--stiff", "--rtol", "1e-3", "--tend", "50", "-p", "mu=5", "--init", "1,0.5")
	cfg, err := buildConfig(cmd, "vanderpol")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Problem != "vanderpol" || cfg.Method != "bdf" {
		t.Errorf("problem/method = %s/%s", cfg.Problem, cfg.Method)
	}
	if cfg.RelTol != 1e-3 || cfg.End != 50 {
		t.Errorf("rtol = %g, end = %g", cfg.RelTol, cfg.End)
	}
	if cfg.AbsTol != config.DefaultAbsTol {
		t.Errorf("atol = %g, unchanged flag should keep the default", cfg.AbsTol)
	}
	if cfg.Params["mu"] != 5 {
		t.Errorf("params = %v", cfg.Params)
	}
	if len(cfg.InitState) != 2 || cfg.InitState[1] != 0.5 {
		t.Errorf("init state = %v", cfg.InitState)
	}
}

func TestBuildConfigLayers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := os.WriteFile(path, []byte("method: rk45\nrtol: 1e-4\nend: 20\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cmd := parsedCommand(t, "--config", path, "--tend", "30", "--atol", "0")
	cfg, err := buildConfig(cmd, "robertson")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Method != "rk45" || cfg.RelTol != 1e-4 {
		t.Errorf("file settings lost: %+v", cfg)
	}
	if cfg.End != 30 {
		t.Errorf("end = %g, flag should override the file", cfg.End)
	}
	if cfg.AbsTol != 0 || cfg.AbsTolVec != nil {
		t.Errorf("atol = %g, atol_vec = %v", cfg.AbsTol, cfg.AbsTolVec)
	}

	cmd = parsedCommand(t, "--preset", "classic")
	cfg, err = buildConfig(cmd, "robertson")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Method != "bdf" || len(cfg.AbsTolVec) != 3 {
		t.Errorf("preset not applied: %+v", cfg)
	}
}

func TestBuildConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown preset", []string{"--preset", "nope"}},
		{"bad param", []string{"-p", "k=fast"}},
		{"bad method", []string{"--method", "leapfrog"}},
		{"empty range", []string{"--tend", "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := parsedCommand(t, tt.args...)
			if _, err := buildConfig(cmd, "decay"); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestParseKnobs(t *testing.T) {
	names, values, err := parseKnobs([]string{"rtol=1e-3, 1e-6", "mu=5"})
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "rtol" || names[1] != "mu" {
		t.Fatalf("names = %v", names)
	}
	if len(values[0]) != 2 || values[0][1] != 1e-6 || values[1][0] != 5 {
		t.Errorf("values = %v", values)
	}
	for _, bad := range []string{"rtol", "=1", "rtol=fast"} {
		if _, _, err := parseKnobs([]string{bad}); err == nil {
			t.Errorf("parseKnobs(%q) accepted", bad)
		}
	}
	if got := formatKnobs(map[string]float64{"rtol": 1e-6, "mu": 5}); got != "mu=5 rtol=1e-06" {
		t.Errorf("formatKnobs = %q", got)
	}
}
