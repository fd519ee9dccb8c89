// Package models holds the fixed-layout records shared by every stage of the
// query engine: the timetable's own entities, the RAPTOR trace records, and
// the request/response shapes of the search operation.
package models

// Stop is a boarding/alighting point with a stable external identifier and a
// dense internal index used for every array lookup in the store.
type Stop struct {
	ID    string
	Lat   float64
	Lon   float64
	Index int
}

// Route groups trips that share an identical, ordered stop sequence. A stop
// may repeat within StopSeq (loop routes); the 0-based position in StopSeq,
// not the stop index, identifies a boarding point.
type Route struct {
	StopSeq []int // stop index per position
	Trips   []int // trip indices, sorted by departure at position 0
}

// Trip is one realisation of a route with concrete per-position times,
// expressed in seconds since the service day started.
type Trip struct {
	RouteIndex int
	Arr        []int32 // Arr[p] <= Dep[p] <= Arr[p+1]
	Dep        []int32
}

// FootPath is a walkable edge between two stops with an estimated walk time.
type FootPath struct {
	From        int
	To          int
	WalkSeconds int
}

// StopRouteRef names one occurrence of a stop within a route; a stop that
// appears twice in a loop route has two distinct refs.
type StopRouteRef struct {
	Route    int
	Position int
}

// Defaults holds the derived constants from spec.md section 3.
type Defaults struct {
	MaxWalkRadiusM          float64
	WalkSpeedMPS            float64
	WalkPenalty             float64
	KMax                    int
	SameStopTransferSeconds int32
}

// DefaultDefaults returns the spec-mandated defaults.
func DefaultDefaults() Defaults {
	return Defaults{
		MaxWalkRadiusM:          1000,
		WalkSpeedMPS:            1.389,
		WalkPenalty:             2.0,
		KMax:                    7,
		SameStopTransferSeconds: 0,
	}
}

// MaxWalkSeconds derives MAX_WALK_SECONDS once from the radius/speed/penalty
// triple, per spec.md section 3.
func (d Defaults) MaxWalkSeconds() int {
	return int(d.MaxWalkRadiusM / d.WalkSpeedMPS * d.WalkPenalty)
}
