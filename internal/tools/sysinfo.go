package tools

import (
	"encoding/json"
	"fmt"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/byteatatime/flare-assist/internal/consts"
)

func executeGetSystemInfo() (string, error) {
	// cpu.Percent blocks for the sample window to measure a usage delta.
	cpuPercents, err := cpu.Percent(consts.CPUSampleWindow, false)
	if err != nil {
		return "", fmt.Errorf("failed to sample CPU usage: %v", err)
	}
	cpuUsage := 0.0
	if len(cpuPercents) > 0 {
		cpuUsage = cpuPercents[0]
	}

	vm, err := mem.VirtualMemory()
	if err != nil {
		return "", fmt.Errorf("failed to read memory stats: %v", err)
	}

	const gib = 1 << 30
	info := map[string]string{
		"cpu_usage_percent":    fmt.Sprintf("%.1f", cpuUsage),
		"memory_used_gb":       fmt.Sprintf("%.2f", float64(vm.Used)/gib),
		"memory_total_gb":      fmt.Sprintf("%.2f", float64(vm.Total)/gib),
		"memory_usage_percent": fmt.Sprintf("%.1f", vm.UsedPercent),
	}

	out, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode system info: %v", err)
	}
	return string(out), nil
}
