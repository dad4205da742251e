package netmgr

import (
	"fmt"
	"net/netip"

	"github.com/dockhaven/dockhaven/internal/apperr"
	"github.com/dockhaven/dockhaven/internal/hardware"
)

// Recommendation proposes a small and a large subnet for the host's tier.
type Recommendation struct {
	Profile    string `json:"profile"`
	Small      string `json:"small"`
	Large      string `json:"large"`
	SmallHosts int    `json:"small_hosts"`
	LargeHosts int    `json:"large_hosts"`
}

// tierPrefixes maps a hardware profile to its recommended (small, large)
// prefix lengths. Tighter tiers get smaller blocks. The values are heuristic
// and kept stable for compatibility.
var tierPrefixes = map[string][2]int{
	hardware.ProfileRaspberryPi:  {28, 27},
	hardware.ProfileLowEnd:       {27, 26},
	hardware.ProfileMediumServer: {26, 25},
	hardware.ProfileHighEnd:      {25, 24},
	hardware.ProfileEnterprise:   {24, 23},
}

// candidateBases are scanned in order; the first whose /16 block is free of
// overlap with every live engine subnet anchors the recommendation.
var candidateBases = []string{
	"172.20.0.0/16",
	"172.21.0.0/16",
	"172.22.0.0/16",
	"172.23.0.0/16",
	"172.24.0.0/16",
	"172.25.0.0/16",
	"10.10.0.0/16",
	"10.20.0.0/16",
	"10.30.0.0/16",
	"10.40.0.0/16",
}

// RecommendSubnets proposes a small and large CIDR for the profile, anchored
// at the first candidate base address not already in use by a live network.
func RecommendSubnets(profile string, live []LiveSubnet) (*Recommendation, error) {
	prefixes, ok := tierPrefixes[profile]
	if !ok {
		prefixes = tierPrefixes[hardware.ProfileMediumServer]
	}

	base, err := freeBase(live)
	if err != nil {
		return nil, err
	}

	return &Recommendation{
		Profile:    profile,
		Small:      fmt.Sprintf("%s/%d", base, prefixes[0]),
		Large:      fmt.Sprintf("%s/%d", base, prefixes[1]),
		SmallHosts: UsableHosts(prefixes[0]),
		LargeHosts: UsableHosts(prefixes[1]),
	}, nil
}

func freeBase(live []LiveSubnet) (netip.Addr, error) {
	for _, candidate := range candidateBases {
		block := netip.MustParsePrefix(candidate)
		taken := false
		for _, ls := range live {
			other, err := netip.ParsePrefix(ls.CIDR)
			if err != nil {
				continue
			}
			if block.Overlaps(other) {
				taken = true
				break
			}
		}
		if !taken {
			return block.Addr(), nil
		}
	}
	return netip.Addr{}, apperr.Validation("no free private address block available for recommendation")
}
