package netmgr

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestUsableHosts(t *testing.T) {
	cases := []struct {
		prefix int
		hosts  int
	}{
		{24, 254},
		{28, 14},
		{30, 2},
		{31, 0},
		{32, 0},
		{16, 65534},
	}
	for _, tc := range cases {
		if got := UsableHosts(tc.prefix); got != tc.hosts {
			t.Errorf("UsableHosts(%d) = %d, want %d", tc.prefix, got, tc.hosts)
		}
	}
}

func TestCheckSubnetRejectsMalformed(t *testing.T) {
	for _, cidr := range []string{"", "not-a-cidr", "10.0.0.0", "10.0.0.0/33", "300.0.0.0/24", "fd00::/64"} {
		result := CheckSubnet(cidr, 24, nil)
		if result.Valid {
			t.Errorf("CheckSubnet(%q) should be invalid", cidr)
		}
		if result.Reason == "" {
			t.Errorf("CheckSubnet(%q) invalid result needs a reason", cidr)
		}
	}
}

func TestCheckSubnetBounds(t *testing.T) {
	// /31 and /32 leave no usable hosts.
	if r := CheckSubnet("10.0.0.0/31", 24, nil); r.Valid {
		t.Error("/31 should be rejected")
	}
	if r := CheckSubnet("10.0.0.0/30", 24, nil); !r.Valid {
		t.Errorf("/30 should be accepted, got %q", r.Reason)
	}
	// A /8 is far beyond a /24 tier limit.
	if r := CheckSubnet("10.0.0.0/8", 24, nil); r.Valid {
		t.Error("/8 should be rejected under a /24 size limit")
	}
	if r := CheckSubnet("10.0.0.0/24", 24, nil); !r.Valid {
		t.Errorf("/24 at the /24 limit should be accepted, got %q", r.Reason)
	}
}

func TestCheckSubnetOverlap(t *testing.T) {
	live := []LiveSubnet{
		{NetworkName: "media", CIDR: "172.20.0.0/24"},
		{NetworkName: "iot", CIDR: "10.10.0.0/26"},
	}
	if r := CheckSubnet("172.20.0.0/25", 28, live); r.Valid {
		t.Error("subset of a live subnet should be rejected")
	}
	if r := CheckSubnet("172.16.0.0/12", 8, live); r.Valid {
		t.Error("superset of a live subnet should be rejected")
	}
	if r := CheckSubnet("172.21.0.0/24", 24, live); !r.Valid {
		t.Errorf("disjoint subnet should be accepted, got %q", r.Reason)
	}
}

func TestCheckSubnetSkipsUnparseableLiveEntries(t *testing.T) {
	live := []LiveSubnet{{NetworkName: "weird", CIDR: "garbage"}}
	if r := CheckSubnet("192.168.50.0/24", 24, live); !r.Valid {
		t.Errorf("unparseable live subnet must not block validation, got %q", r.Reason)
	}
}

func genPrefix() gopter.Gen {
	return gopter.CombineGens(
		gen.IntRange(0, 255),
		gen.IntRange(0, 255),
		gen.IntRange(16, 30),
	).Map(func(vals []interface{}) string {
		return fmt.Sprintf("10.%d.%d.0/%d", vals[0].(int), vals[1].(int), vals[2].(int))
	})
}

func TestOverlapRejectionIsSymmetric(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200
	properties := gopter.NewProperties(params)

	properties.Property("a overlaps b iff b overlaps a", prop.ForAll(
		func(a, b string) bool {
			aBlocksB := !CheckSubnet(b, 0, []LiveSubnet{{NetworkName: "a", CIDR: a}}).Valid
			bBlocksA := !CheckSubnet(a, 0, []LiveSubnet{{NetworkName: "b", CIDR: b}}).Valid
			return aBlocksB == bBlocksA
		},
		genPrefix(),
		genPrefix(),
	))

	properties.Property("a subnet always overlaps itself", prop.ForAll(
		func(a string) bool {
			return !CheckSubnet(a, 0, []LiveSubnet{{NetworkName: "self", CIDR: a}}).Valid
		},
		genPrefix(),
	))

	properties.TestingRun(t)
}
