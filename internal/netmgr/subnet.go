// Package netmgr manages Docker networks: CRUD with metadata mirroring,
// subnet validation against the hardware tier and the live engine state,
// subnet recommendation, and the oversized-network heuristic.
package netmgr

import (
	"fmt"
	"net/netip"
)

// ValidationResult reports whether a subnet is acceptable. Reason is empty
// iff Valid.
type ValidationResult struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// LiveSubnet is one subnet currently configured on a live engine network.
type LiveSubnet struct {
	NetworkName string
	CIDR        string
}

// UsableHosts returns the number of usable host addresses for an IPv4 prefix
// length: 2^(32-p) - 2, floored at 0.
func UsableHosts(prefixLen int) int {
	if prefixLen < 0 || prefixLen > 32 {
		return 0
	}
	n := (1 << (32 - prefixLen)) - 2
	if n < 0 {
		return 0
	}
	return n
}

// usableHostsOf is UsableHosts applied to a CIDR string, 0 when unparseable.
func usableHostsOf(cidr string) int {
	prefix, err := netip.ParsePrefix(cidr)
	if err != nil || !prefix.Addr().Is4() {
		return 0
	}
	return UsableHosts(prefix.Bits())
}

// CheckSubnet validates a CIDR block. Checks run in order and short-circuit
// on the first failure:
//  1. syntactically valid IPv4 CIDR notation
//  2. prefix length at most /30 (at least 2 usable hosts)
//  3. prefix length at least the tier's sizeLimit (not too large for the
//     hardware)
//  4. no overlap with any subnet on a live engine network
func CheckSubnet(cidr string, sizeLimit int, live []LiveSubnet) ValidationResult {
	prefix, err := netip.ParsePrefix(cidr)
	if err != nil || !prefix.Addr().Is4() {
		return ValidationResult{Reason: fmt.Sprintf("%q is not valid CIDR notation", cidr)}
	}

	if prefix.Bits() > 30 {
		return ValidationResult{Reason: fmt.Sprintf(
			"subnet /%d has no usable host addresses (maximum prefix is /30)", prefix.Bits())}
	}

	if prefix.Bits() < sizeLimit {
		return ValidationResult{Reason: fmt.Sprintf(
			"subnet /%d is too large for this hardware profile (limit /%d)",
			prefix.Bits(), sizeLimit)}
	}

	for _, ls := range live {
		other, err := netip.ParsePrefix(ls.CIDR)
		if err != nil {
			continue
		}
		if prefix.Overlaps(other) {
			return ValidationResult{Reason: fmt.Sprintf(
				"subnet overlaps network %q (%s)", ls.NetworkName, ls.CIDR)}
		}
	}

	return ValidationResult{Valid: true}
}
