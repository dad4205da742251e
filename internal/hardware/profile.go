// Package hardware classifies the host machine into a tier used to scale
// container limits and subnet size recommendations.
package hardware

import (
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// Profile names, tightest tier first.
const (
	ProfileRaspberryPi  = "RASPBERRY_PI"
	ProfileLowEnd       = "LOW_END"
	ProfileMediumServer = "MEDIUM_SERVER"
	ProfileHighEnd      = "HIGH_END"
	ProfileEnterprise   = "ENTERPRISE"
)

// Tier holds the per-profile limits.
type Tier struct {
	Name             string
	MaxContainers    int
	NetworkSizeLimit int // CIDR prefix ceiling: subnets larger (smaller prefix) are rejected
}

var tiers = map[string]Tier{
	ProfileRaspberryPi:  {ProfileRaspberryPi, 10, 25},
	ProfileLowEnd:       {ProfileLowEnd, 25, 24},
	ProfileMediumServer: {ProfileMediumServer, 50, 22},
	ProfileHighEnd:      {ProfileHighEnd, 100, 20},
	ProfileEnterprise:   {ProfileEnterprise, 250, 16},
}

// TierByName returns the tier for a profile name, defaulting to MEDIUM_SERVER
// for unknown names.
func TierByName(name string) Tier {
	if t, ok := tiers[name]; ok {
		return t
	}
	return tiers[ProfileMediumServer]
}

// Classify maps detected cpu/ram onto a tier.
func Classify(cores int, ramGB float64) Tier {
	switch {
	case cores <= 4 && ramGB < 4:
		return tiers[ProfileRaspberryPi]
	case ramGB < 8:
		return tiers[ProfileLowEnd]
	case ramGB < 16:
		return tiers[ProfileMediumServer]
	case ramGB < 64:
		return tiers[ProfileHighEnd]
	default:
		return tiers[ProfileEnterprise]
	}
}

// Detect reads physical cpu core count and total memory from the host.
func Detect() (cores int, ramGB float64, err error) {
	cores, err = cpu.Counts(true)
	if err != nil {
		return 0, 0, err
	}
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, 0, err
	}
	return cores, float64(vm.Total) / (1 << 30), nil
}
