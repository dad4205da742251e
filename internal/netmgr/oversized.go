package netmgr

import "net/netip"

// IsOversized reports whether a network's subnet wastes address space:
// true iff its usable host count exceeds max(4 x attached containers, 10).
// Engine-default networks (bridge/host/none) are never oversized; callers
// must check that before asking.
func IsOversized(subnet string, attachedContainers int) bool {
	prefix, err := netip.ParsePrefix(subnet)
	if err != nil || !prefix.Addr().Is4() {
		return false
	}
	threshold := attachedContainers * 4
	if threshold < 10 {
		threshold = 10
	}
	return UsableHosts(prefix.Bits()) > threshold
}
