package detect_test

import (
	"math"
	"testing"

	"titantron/internal/detect"
)

func bellPolicy(kind detect.Kind) detect.MergePolicy {
	return detect.MergePolicy{
		WindowTicks:    30 * detect.TicksPerSecond,
		MinClusterSize: 2,
		BoostPerMember: 0.1,
	}
}

func TestClusterEmptyInput(t *testing.T) {
	if got := detect.Cluster(nil, bellPolicy); len(got) != 0 {
		t.Fatalf("expected empty output, got %v", got)
	}
	if got := detect.Cluster([]detect.Detection{}, bellPolicy); len(got) != 0 {
		t.Fatalf("expected empty output, got %v", got)
	}
}

func TestClusterMergesRunAndBoostsConfidence(t *testing.T) {
	input := []detect.Detection{
		{TimestampTicks: 0, Confidence: 0.4, Kind: detect.KindBell},
		{TimestampTicks: 2 * detect.TicksPerSecond, Confidence: 0.6, Kind: detect.KindBell},
		{TimestampTicks: 4 * detect.TicksPerSecond, Confidence: 0.5, Kind: detect.KindBell},
	}

	got := detect.Cluster(input, bellPolicy)
	if len(got) != 1 {
		t.Fatalf("expected one clustered detection, got %d", len(got))
	}
	if got[0].TimestampTicks != 2*detect.TicksPerSecond {
		t.Fatalf("expected highest-confidence member to survive, got ticks %d", got[0].TimestampTicks)
	}
	want := 0.6 + 0.1*3
	if math.Abs(got[0].Confidence-want) > 1e-9 {
		t.Fatalf("expected boosted confidence %.3f, got %.3f", want, got[0].Confidence)
	}
}

func TestClusterBoostCapped(t *testing.T) {
	input := make([]detect.Detection, 0, 8)
	for i := 0; i < 8; i++ {
		input = append(input, detect.Detection{
			TimestampTicks: int64(i) * detect.TicksPerSecond,
			Confidence:     0.85,
			Kind:           detect.KindBell,
		})
	}
	got := detect.Cluster(input, bellPolicy)
	if len(got) != 1 {
		t.Fatalf("expected one cluster, got %d", len(got))
	}
	if got[0].Confidence > 0.95 {
		t.Fatalf("expected confidence capped at 0.95, got %.3f", got[0].Confidence)
	}
}

func TestClusterKeepsDistantEventsApart(t *testing.T) {
	input := []detect.Detection{
		{TimestampTicks: 0, Confidence: 0.5, Kind: detect.KindBell},
		{TimestampTicks: 120 * detect.TicksPerSecond, Confidence: 0.5, Kind: detect.KindBell},
	}
	got := detect.Cluster(input, bellPolicy)
	if len(got) != 2 {
		t.Fatalf("expected two clusters, got %d", len(got))
	}
}

func TestClusterKindsAreIndependent(t *testing.T) {
	input := []detect.Detection{
		{TimestampTicks: 0, Confidence: 0.5, Kind: detect.KindBell},
		{TimestampTicks: 1 * detect.TicksPerSecond, Confidence: 0.7, Kind: detect.KindMusicStart},
		{TimestampTicks: 2 * detect.TicksPerSecond, Confidence: 0.5, Kind: detect.KindBell},
	}
	got := detect.Cluster(input, bellPolicy)
	if len(got) != 2 {
		t.Fatalf("expected one bell cluster plus one music detection, got %d", len(got))
	}
	kinds := map[detect.Kind]int{}
	for _, d := range got {
		kinds[d.Kind]++
	}
	if kinds[detect.KindBell] != 1 || kinds[detect.KindMusicStart] != 1 {
		t.Fatalf("unexpected kind distribution: %v", kinds)
	}
}

func TestClusterIsIdempotent(t *testing.T) {
	input := []detect.Detection{
		{TimestampTicks: 0, Confidence: 0.4, Kind: detect.KindBell},
		{TimestampTicks: 3 * detect.TicksPerSecond, Confidence: 0.6, Kind: detect.KindBell},
		{TimestampTicks: 200 * detect.TicksPerSecond, Confidence: 0.3, Kind: detect.KindSceneChange},
		{TimestampTicks: 400 * detect.TicksPerSecond, Confidence: 0.8, Kind: detect.KindBell},
	}
	policy := func(kind detect.Kind) detect.MergePolicy {
		if kind == detect.KindBell {
			return bellPolicy(kind)
		}
		return detect.MergePolicy{WindowTicks: 5 * detect.TicksPerSecond}
	}

	once := detect.Cluster(input, policy)
	twice := detect.Cluster(once, policy)
	if len(once) != len(twice) {
		t.Fatalf("re-clustering changed length: %d vs %d", len(once), len(twice))
	}
	for i := range once {
		if once[i] != twice[i] {
			t.Fatalf("re-clustering changed element %d: %+v vs %+v", i, once[i], twice[i])
		}
	}

	// No two surviving detections of one kind may sit closer than the window.
	for i := range once {
		for j := i + 1; j < len(once); j++ {
			if once[i].Kind != once[j].Kind {
				continue
			}
			gap := once[j].TimestampTicks - once[i].TimestampTicks
			if gap < 0 {
				gap = -gap
			}
			if gap <= policy(once[i].Kind).WindowTicks {
				t.Fatalf("detections %d and %d of kind %s closer than merge window", i, j, once[i].Kind)
			}
		}
	}
}

func TestParseKind(t *testing.T) {
	cases := []struct {
		in   string
		want detect.Kind
		ok   bool
	}{
		{"bell", detect.KindBell, true},
		{" Music_Start ", detect.KindMusicStart, true},
		{"scene_change", detect.KindSceneChange, true},
		{"", "", false},
		{"explosion", "", false},
	}
	for _, tc := range cases {
		got, ok := detect.ParseKind(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ParseKind(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
