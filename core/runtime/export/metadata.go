package export

import (
	"encoding/json"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/hyperterse/hyperbench/core/domain"
)

// HostInfo describes the machine that drove the benchmark
type HostInfo struct {
	Hostname string  `json:"hostname"`
	Platform string  `json:"platform"`
	Arch     string  `json:"arch"`
	CPUModel string  `json:"cpu_model,omitempty"`
	CPUCount int     `json:"cpu_count"`
	CPUMHz   float64 `json:"cpu_mhz,omitempty"`
	RAMGiB   float64 `json:"ram_gib,omitempty"`
}

// RunMetadata is written to run.json next to the results
type RunMetadata struct {
	RunID      string            `json:"run_id"`
	Benchmark  string            `json:"benchmark"`
	Config     domain.RunConfig  `json:"config"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Duration   float64           `json:"duration_seconds"`
	Results    map[string]int    `json:"results"`
	Failures   map[string]string `json:"failures,omitempty"`
	Host       HostInfo          `json:"host"`
}

// NewRunMetadata collects run metadata and host information. Host fields
// that cannot be read are left empty.
func NewRunMetadata(report *domain.Report) RunMetadata {
	meta := RunMetadata{
		RunID:      report.RunID,
		Benchmark:  report.Benchmark,
		Config:     report.Config,
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Duration:   report.FinishedAt.Sub(report.StartedAt).Seconds(),
		Results:    make(map[string]int, len(report.Results)),
		Host:       HostStat(),
	}
	for vendor, results := range report.Results {
		meta.Results[vendor] = len(results)
	}
	if len(report.Failures) > 0 {
		meta.Failures = make(map[string]string, len(report.Failures))
		for vendor, err := range report.Failures {
			meta.Failures[vendor] = err.Error()
		}
	}
	return meta
}

// HostStat reads host, CPU and memory information
func HostStat() HostInfo {
	info := HostInfo{
		Arch:     runtime.GOARCH,
		CPUCount: runtime.NumCPU(),
	}

	if hostStat, err := host.Info(); err == nil {
		info.Hostname = hostStat.Hostname
		info.Platform = hostStat.Platform
	}
	if cpuStat, err := cpu.Info(); err == nil && len(cpuStat) > 0 {
		info.CPUModel = cpuStat[0].ModelName
		total := 0.0
		for _, c := range cpuStat {
			total += c.Mhz
		}
		info.CPUMHz = total / float64(len(cpuStat))
	}
	if vmStat, err := mem.VirtualMemory(); err == nil {
		info.RAMGiB = float64(vmStat.Total) / 1024 / 1024 / 1024
	}
	return info
}

// EncodeRunMetadata renders meta as indented JSON
func EncodeRunMetadata(meta RunMetadata) ([]byte, error) {
	return json.MarshalIndent(meta, "", "  ")
}
