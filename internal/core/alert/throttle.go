// Package alert contains the pure decision rules for alert throttling.
// This is part of the Functional Core - no I/O, only pure functions.
package alert

// Decision is the outcome of evaluating an invalid set against the
// previously alerted one.
type Decision struct {
	Fire  bool // surface a warning for the current invalid set
	Clear bool // forget the previously alerted set (invalid set went empty)
	Count int  // size of the invalid set when firing
}

// Evaluate applies the throttle rules:
//   - empty invalid set: clear the remembered set, no alert;
//   - invalid set equal (same members, any order) to the remembered set:
//     suppress as unchanged;
//   - otherwise: fire, naming the count of invalid records.
//
// The caller owns the remembered set and the cooldown timer; Evaluate is a
// pure function of the two sets.
func Evaluate(lastAlerted, invalid []string) Decision {
	if len(invalid) == 0 {
		return Decision{Clear: true}
	}
	if SameSet(lastAlerted, invalid) {
		return Decision{}
	}
	return Decision{Fire: true, Count: len(invalid)}
}

// SameSet reports whether two identifier slices contain the same members,
// ignoring order and repeats.
func SameSet(a, b []string) bool {
	setA := toSet(a)
	setB := toSet(b)
	if len(setA) != len(setB) {
		return false
	}
	for uid := range setA {
		if _, ok := setB[uid]; !ok {
			return false
		}
	}
	return true
}

func toSet(uids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(uids))
	for _, uid := range uids {
		set[uid] = struct{}{}
	}
	return set
}
