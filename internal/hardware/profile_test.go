package hardware

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		cores   int
		ramGB   float64
		profile string
	}{
		{4, 1, ProfileRaspberryPi},
		{4, 3.8, ProfileRaspberryPi},
		{2, 6, ProfileLowEnd},
		{8, 4, ProfileLowEnd}, // enough cores, low ram
		{8, 12, ProfileMediumServer},
		{16, 32, ProfileHighEnd},
		{32, 128, ProfileEnterprise},
	}
	for _, tc := range cases {
		got := Classify(tc.cores, tc.ramGB)
		if got.Name != tc.profile {
			t.Errorf("Classify(%d, %.1f) = %s, want %s", tc.cores, tc.ramGB, got.Name, tc.profile)
		}
	}
}

func TestTierLimitsTightenWithSmallerHardware(t *testing.T) {
	order := []string{ProfileRaspberryPi, ProfileLowEnd, ProfileMediumServer, ProfileHighEnd, ProfileEnterprise}
	for i := 1; i < len(order); i++ {
		prev, cur := TierByName(order[i-1]), TierByName(order[i])
		if cur.MaxContainers <= prev.MaxContainers {
			t.Errorf("%s max containers should exceed %s", cur.Name, prev.Name)
		}
		// A bigger tier may use larger subnets, i.e. a smaller prefix ceiling.
		if cur.NetworkSizeLimit > prev.NetworkSizeLimit {
			t.Errorf("%s network size limit should not be tighter than %s", cur.Name, prev.Name)
		}
	}
}

func TestTierByNameUnknownDefaultsToMedium(t *testing.T) {
	if got := TierByName("QUANTUM"); got.Name != ProfileMediumServer {
		t.Errorf("unknown profile should default to medium, got %s", got.Name)
	}
}
