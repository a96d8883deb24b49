package annotation

// Classification is the result of validating a set of records.
// Syncable holds complete, validly scored records; Invalid holds records that
// are complete but lack a valid score. Incomplete records appear in neither -
// they are transient, not-yet-finalized geometry. Order follows the input.
type Classification struct {
	Syncable []Record
	Invalid  []Record
}

// Classify validates each record along two axes: complete (statistics payload
// present and non-empty) and scored (score present, integer in range). Only
// complete records participate; among them, the unscored form the invalid set
// surfaced to the alert throttle.
func Classify(records []Record) Classification {
	var c Classification
	for _, rec := range records {
		if !rec.Complete() {
			continue
		}
		if rec.Syncable() {
			c.Syncable = append(c.Syncable, rec)
		} else {
			c.Invalid = append(c.Invalid, rec)
		}
	}
	return c
}

// InvalidUIDs extracts the identifiers of the invalid set, preserving order.
func (c Classification) InvalidUIDs() []string {
	if len(c.Invalid) == 0 {
		return nil
	}
	uids := make([]string, len(c.Invalid))
	for i, rec := range c.Invalid {
		uids[i] = rec.UID
	}
	return uids
}

// AllScored reports whether every complete record carries a valid score,
// i.e. the invalid set is empty and a snapshot may be emitted.
func (c Classification) AllScored() bool {
	return len(c.Invalid) == 0
}
