package parser

import (
	"fmt"
	"os"
	"path/filepath"
)

// Phase names a script in a benchmark directory
type Phase string

const (
	PhaseSetup     Phase = "setup"
	PhaseWarmup    Phase = "warmup"
	PhaseBenchmark Phase = "benchmark"
)

// Phases lists every phase in execution order
var Phases = []Phase{PhaseSetup, PhaseWarmup, PhaseBenchmark}

// ResolvePhaseFile returns <benchmarkPath>/<vendor>/<phase>.sql when it
// exists and <benchmarkPath>/<phase>.sql otherwise. The boolean reports
// whether the returned file exists.
func ResolvePhaseFile(benchmarkPath, vendor string, phase Phase) (string, bool) {
	name := string(phase) + ".sql"
	return resolveVendorFile(benchmarkPath, vendor, name)
}

// LoadPhase resolves and parses a phase script. A missing file is not an
// error: it yields no statements and found=false.
func LoadPhase(benchmarkPath, vendor string, phase Phase) (statements []string, path string, found bool, err error) {
	path, found = ResolvePhaseFile(benchmarkPath, vendor, phase)
	if !found {
		return nil, path, false, nil
	}
	statements, err = LoadScript(path)
	if err != nil {
		return nil, path, true, fmt.Errorf("failed to load %s script: %w", phase, err)
	}
	return statements, path, true, nil
}

func resolveVendorFile(benchmarkPath, vendor, name string) (string, bool) {
	vendorFile := filepath.Join(benchmarkPath, vendor, name)
	if fileExists(vendorFile) {
		return vendorFile, true
	}
	general := filepath.Join(benchmarkPath, name)
	return general, fileExists(general)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
