package trace

import "sort"

// TimeAccount splits one crane's elapsed time by activity.
type TimeAccount struct {
	Idle     float64
	Moving   float64
	Avoiding float64
}

// Total returns the accounted time.
func (a TimeAccount) Total() float64 {
	return a.Idle + a.Moving + a.Avoiding
}

type openInterval struct {
	activity string
	start    float64
}

// Summarize reconstructs per-crane time accounting from the event log. Any
// interval still open at end is closed there. Direct legs count as moving;
// detour legs and avoidance waits count as avoiding.
func Summarize(records []Record, end float64) map[string]TimeAccount {
	accounts := make(map[string]TimeAccount)
	open := make(map[string]*openInterval)

	closeInterval := func(crane string, at float64) {
		iv := open[crane]
		if iv == nil {
			return
		}
		acc := accounts[crane]
		switch iv.activity {
		case "idle":
			acc.Idle += at - iv.start
		case "moving":
			acc.Moving += at - iv.start
		case "avoiding":
			acc.Avoiding += at - iv.start
		}
		accounts[crane] = acc
		delete(open, crane)
	}
	openAt := func(crane, activity string, at float64) {
		closeInterval(crane, at)
		open[crane] = &openInterval{activity: activity, start: at}
	}

	for _, r := range records {
		if r.Crane == "" {
			continue
		}
		if _, ok := accounts[r.Crane]; !ok {
			accounts[r.Crane] = TimeAccount{}
		}
		switch r.Kind {
		case KindIdleStart:
			openAt(r.Crane, "idle", r.Time)
		case KindMoveFrom:
			if r.Avoidance {
				openAt(r.Crane, "avoiding", r.Time)
			} else {
				openAt(r.Crane, "moving", r.Time)
			}
		case KindWaitingStart:
			openAt(r.Crane, "avoiding", r.Time)
		case KindIdleFinish, KindMoveTo, KindInterferencePredicted, KindWaitingFinish:
			closeInterval(r.Crane, r.Time)
		}
	}
	cranes := make([]string, 0, len(open))
	for c := range open {
		cranes = append(cranes, c)
	}
	sort.Strings(cranes)
	for _, c := range cranes {
		closeInterval(c, end)
	}
	return accounts
}

// CountByKind tallies records per kind.
func CountByKind(records []Record) map[EventKind]int {
	counts := make(map[EventKind]int)
	for _, r := range records {
		counts[r.Kind]++
	}
	return counts
}
