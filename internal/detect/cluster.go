package detect

// MergePolicy controls how near-duplicate detections of one kind collapse
// into a single event.
type MergePolicy struct {
	// WindowTicks is the maximum gap between consecutive detections that
	// still belong to the same cluster.
	WindowTicks int64
	// MinClusterSize is the member count at which a cluster earns a
	// confidence boost. Zero disables boosting.
	MinClusterSize int
	// BoostPerMember is added to the representative's confidence once per
	// cluster member when the cluster reaches MinClusterSize.
	BoostPerMember float64
}

// boostCap is the ceiling applied to boosted cluster confidence.
const boostCap = 0.95

// PolicyFunc resolves the merge policy for a detection kind.
type PolicyFunc func(Kind) MergePolicy

// Cluster merges near-duplicate detections per kind: detections of the same
// kind whose consecutive gaps all fall within the kind's merge window collapse
// into their highest-confidence member. Clusters with at least MinClusterSize
// members get a bounded confidence boost proportional to cluster size.
//
// Cluster is a total function: empty input yields empty output, and
// re-clustering an already-clustered list is a no-op.
func Cluster(detections []Detection, policyFor PolicyFunc) []Detection {
	if len(detections) == 0 {
		return nil
	}

	byKind := make(map[Kind][]Detection)
	order := make([]Kind, 0, len(allKinds))
	for _, d := range detections {
		if _, seen := byKind[d.Kind]; !seen {
			order = append(order, d.Kind)
		}
		byKind[d.Kind] = append(byKind[d.Kind], d)
	}

	merged := make([]Detection, 0, len(detections))
	for _, kind := range order {
		policy := MergePolicy{}
		if policyFor != nil {
			policy = policyFor(kind)
		}
		merged = append(merged, clusterKind(byKind[kind], policy)...)
	}

	SortByTimestamp(merged)
	return merged
}

func clusterKind(detections []Detection, policy MergePolicy) []Detection {
	if len(detections) == 0 {
		return nil
	}

	sorted := make([]Detection, len(detections))
	copy(sorted, detections)
	SortByTimestamp(sorted)

	if policy.WindowTicks <= 0 {
		return sorted
	}

	result := make([]Detection, 0, len(sorted))
	clusterStart := 0
	for i := 1; i <= len(sorted); i++ {
		if i < len(sorted) && sorted[i].TimestampTicks-sorted[i-1].TimestampTicks <= policy.WindowTicks {
			continue
		}
		result = append(result, representative(sorted[clusterStart:i], policy))
		clusterStart = i
	}
	return result
}

func representative(cluster []Detection, policy MergePolicy) Detection {
	best := cluster[0]
	for _, d := range cluster[1:] {
		if d.Confidence > best.Confidence {
			best = d
		}
	}
	if policy.MinClusterSize > 0 && len(cluster) >= policy.MinClusterSize && policy.BoostPerMember > 0 {
		boosted := best.Confidence + policy.BoostPerMember*float64(len(cluster))
		if boosted > boostCap {
			boosted = boostCap
		}
		if boosted > best.Confidence {
			best.Confidence = boosted
		}
	}
	return best
}
