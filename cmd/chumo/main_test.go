package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
)

var (
	buildOnce sync.Once
	chumoPath string
	buildErr  error
)

// buildChumo builds the chumo binary once and returns its path.
func buildChumo(t testing.TB) string {
	t.Helper()

	buildOnce.Do(func() {
		binDir, err := os.MkdirTemp("", "chumo-bin-")
		if err != nil {
			buildErr = err
			return
		}
		chumoPath = filepath.Join(binDir, "chumo")
		cmd := exec.Command("go", "build", "-o", chumoPath, ".")
		output, err := cmd.CombinedOutput()
		if err != nil {
			buildErr = fmt.Errorf("build chumo: %w: %s", err, strings.TrimSpace(string(output)))
		}
	})

	if buildErr != nil {
		t.Fatalf("%v", buildErr)
	}
	return chumoPath
}

func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: "testdata/script",
		Setup: func(env *testscript.Env) error {
			env.Setenv("CHUMO", buildChumo(t))
			homeDir := filepath.Join(env.WorkDir, "home")
			if err := os.MkdirAll(homeDir, 0o755); err != nil {
				return err
			}
			env.Setenv("HOME", homeDir)
			env.Setenv("CHUMO_USER", "u1")
			env.Setenv("CHUMO_REDUCE_MOTION", "1")
			return nil
		},
	})
}
