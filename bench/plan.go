package bench

import "sort"

// fallbackConcurrency caps the substitute level used when no requested level
// survives validation.
const fallbackConcurrency = 100

// PlanConcurrency normalizes a requested concurrency sweep against the
// per-test request budget: duplicates collapse, levels sort ascending, and
// levels that are non-positive or exceed totalRequests are dropped (ab
// cannot open more concurrent connections than it has requests to send).
// If nothing survives, a single fallback level of min(100, totalRequests)
// is substituted. The dropped count is returned so callers can warn the
// operator; the planner itself never prints.
func PlanConcurrency(requested []int, totalRequests int) (levels []int, dropped int) {
	seen := make(map[int]struct{}, len(requested))
	for _, level := range requested {
		if level < 1 || level > totalRequests {
			dropped++
			continue
		}
		if _, ok := seen[level]; ok {
			continue
		}
		seen[level] = struct{}{}
		levels = append(levels, level)
	}
	sort.Ints(levels)

	if len(levels) == 0 {
		fallback := totalRequests
		if fallback > fallbackConcurrency {
			fallback = fallbackConcurrency
		}
		if fallback < 1 {
			fallback = 1
		}
		levels = []int{fallback}
	}
	return levels, dropped
}
