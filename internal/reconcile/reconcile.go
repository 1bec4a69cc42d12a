package reconcile

import "animedb/internal/record"

// Change lists the fields filled into one store for one title.
type Change struct {
	Key    string
	Into   record.Source
	Fields []string
}

// Report summarizes a gap filling pass.
type Report struct {
	Compared int
	Changes  []Change
}

// FieldsFilled returns the total number of fields filled across both stores.
func (r Report) FieldsFilled() int {
	total := 0
	for _, c := range r.Changes {
		total += len(c.Fields)
	}
	return total
}

// FillKey fills absent fields of key in a from b and in b from a. Titles
// present in only one store are left alone. It returns the changes applied.
func FillKey(a, b *record.Store, key string) []Change {
	ra, okA := a.Get(key)
	rb, okB := b.Get(key)
	if !okA || !okB {
		return nil
	}

	var changes []Change
	if filled := ra.FillFrom(rb); len(filled) > 0 {
		a.Put(key, ra)
		changes = append(changes, Change{Key: key, Into: a.Source(), Fields: filled})
	}
	if filled := rb.FillFrom(ra); len(filled) > 0 {
		b.Put(key, rb)
		changes = append(changes, Change{Key: key, Into: b.Source(), Fields: filled})
	}
	return changes
}

// FillTheGaps runs FillKey for every title key of a that b also holds.
func FillTheGaps(a, b *record.Store) Report {
	var report Report
	for _, key := range a.Keys() {
		if !b.Has(key) {
			continue
		}
		report.Compared++
		report.Changes = append(report.Changes, FillKey(a, b, key)...)
	}
	return report
}

// Adopt returns a copy of fallback, taken from source from, for use as the
// other source's record. The score is rescaled to the 0-100 scale and the
// filesystem path is set when path is non-empty.
func Adopt(fallback record.Record, from record.Source, path string) record.Record {
	adopted := fallback.Clone()
	adopted.NormalizeScore(from.LegacyScale())
	if path != "" {
		adopted.FullPath = path
	}
	return adopted
}
