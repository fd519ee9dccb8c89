package journey

import (
	"sort"

	"transitraptor.dev/internal/models"
)

// Filter deduplicates exact leg-sequence repeats, removes strictly
// dominated journeys on (arrival_time, transfer_count), and returns the
// remainder ordered by arrival time, then transfer count, then shorter
// total walking time, then earlier departure from the first boarded stop —
// the tie-break spec.md section 4.5 prescribes.
func Filter(candidates []models.Journey) []models.Journey {
	deduped := dedupe(candidates)
	survivors := make([]models.Journey, 0, len(deduped))

	for i, j := range deduped {
		dominated := false
		for k, other := range deduped {
			if k == i {
				continue
			}
			if dominates(other, j) {
				dominated = true
				break
			}
		}
		if !dominated {
			survivors = append(survivors, j)
		}
	}

	sort.SliceStable(survivors, func(i, j int) bool {
		a, b := survivors[i], survivors[j]
		if a.ArrivalTime != b.ArrivalTime {
			return a.ArrivalTime < b.ArrivalTime
		}
		if a.TransferCount != b.TransferCount {
			return a.TransferCount < b.TransferCount
		}
		if a.TotalWalkSecs != b.TotalWalkSecs {
			return a.TotalWalkSecs < b.TotalWalkSecs
		}
		return firstDeparture(a) < firstDeparture(b)
	})

	return survivors
}

// dominates reports whether a strictly dominates b on (arrival_time,
// transfer_count): at least as good on both, strictly better on one.
func dominates(a, b models.Journey) bool {
	if a.ArrivalTime > b.ArrivalTime || a.TransferCount > b.TransferCount {
		return false
	}
	return a.ArrivalTime < b.ArrivalTime || a.TransferCount < b.TransferCount
}

func firstDeparture(j models.Journey) int32 {
	if len(j.Legs) == 0 {
		return 0
	}
	return j.Legs[0].FromTime
}

// dedupe collapses journeys whose leg sequences are byte-for-byte
// identical; journeys with the same (arrival_time, transfer_count) but
// different legs (e.g. differing access/egress walk distance) are kept
// distinct per spec.md's stated de-duplication policy.
func dedupe(candidates []models.Journey) []models.Journey {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]models.Journey, 0, len(candidates))
	for _, j := range candidates {
		key := journeyKey(j)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, j)
	}
	return out
}

func journeyKey(j models.Journey) string {
	b := make([]byte, 0, len(j.Legs)*32)
	for _, leg := range j.Legs {
		b = append(b, byte(leg.Kind))
		b = append(b, leg.FromStop...)
		b = append(b, leg.ToStop...)
		b = appendInt32(b, leg.FromTime)
		b = appendInt32(b, leg.ToTime)
		b = append(b, leg.RouteID...)
		b = append(b, leg.TripID...)
	}
	return string(b)
}

func appendInt32(b []byte, v int32) []byte {
	return append(b, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}
