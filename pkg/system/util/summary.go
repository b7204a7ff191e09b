package util

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemSummary returns host name, kernel, CPU and memory strings for the
// report header. Fields that cannot be read come back as "unknown".
func SystemSummary() (hostname, kernel, cpus, memory string) {
	hostname, kernel, cpus, memory = "unknown", "unknown", "unknown", "unknown"

	if info, err := host.Info(); err == nil {
		hostname = info.Hostname
		kernel = fmt.Sprintf("%s %s (%s)", info.OS, info.KernelVersion, info.KernelArch)
	}

	logical, errL := cpu.Counts(true)
	physical, errP := cpu.Counts(false)
	switch {
	case errL == nil && errP == nil && physical > 0:
		cpus = fmt.Sprintf("%d logical / %d physical", logical, physical)
	case errL == nil:
		cpus = fmt.Sprintf("%d logical", logical)
	}
	if infos, err := cpu.Info(); err == nil && len(infos) > 0 && infos[0].ModelName != "" {
		cpus += ", " + infos[0].ModelName
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		memory = fmt.Sprintf("%.2f GB total, %.1f%% used", float64(vm.Total)/(1<<30), vm.UsedPercent)
	}
	return hostname, kernel, cpus, memory
}
