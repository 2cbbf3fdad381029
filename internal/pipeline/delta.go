package pipeline

import "sort"

// DerivedRecord is a Record plus the non-cumulative monthly value
// obtained by differencing consecutive months within the same
// (factory, year) group.
type DerivedRecord struct {
	Record
	MonthlyValue *float64 `json:"monthly_value"`
}

// groupKey identifies a (factory, year) series. A nil year groups
// separately from any concrete year.
type groupKey struct {
	factory string
	year    int
	hasYear bool
}

func keyOf(r Record) groupKey {
	k := groupKey{factory: r.Factory}
	if r.Year != nil {
		k.year = *r.Year
		k.hasYear = true
	}
	return k
}

// DeriveMonthly computes the monthly value for every (factory, year,
// month) in records. Duplicate keys are collapsed first, last record
// winning, mirroring the store's upsert semantics.
//
// Rules, per group ordered by month ascending:
//   - month 1: monthly value equals the cumulative value.
//   - prior month present: monthly = cumulative - prior cumulative.
//     A nil operand on either side yields a nil monthly value; null
//     poisons the computation rather than acting as zero.
//   - prior month absent: the missing baseline is treated as zero, so
//     monthly = cumulative. This differs deliberately from the
//     null-operand case above.
//
// The whole set is recomputed on every call; there is no incremental
// maintenance. Output is sorted by factory, year (nil first), month,
// so identical input always yields identical output.
func DeriveMonthly(records []Record) []DerivedRecord {
	latest := make(map[monthKey]Record, len(records))
	order := make([]monthKey, 0, len(records))
	for _, r := range records {
		mk := monthKey{keyOf(r), r.Month}
		if _, seen := latest[mk]; !seen {
			order = append(order, mk)
		}
		latest[mk] = r
	}

	sort.Slice(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if a.factory != b.factory {
			return a.factory < b.factory
		}
		if a.hasYear != b.hasYear {
			return !a.hasYear
		}
		if a.year != b.year {
			return a.year < b.year
		}
		return a.month < b.month
	})

	derived := make([]DerivedRecord, 0, len(order))
	for _, mk := range order {
		rec := latest[mk]
		derived = append(derived, DerivedRecord{
			Record:       rec,
			MonthlyValue: monthlyValue(rec, latest, mk.groupKey),
		})
	}
	return derived
}

func monthlyValue(rec Record, latest map[monthKey]Record, gk groupKey) *float64 {
	if rec.Month == 1 {
		return copyFloat(rec.CumulativeValue)
	}
	prior, ok := latest[monthKey{gk, rec.Month - 1}]
	if !ok {
		// Missing prior month: zero baseline.
		return copyFloat(rec.CumulativeValue)
	}
	if rec.CumulativeValue == nil || prior.CumulativeValue == nil {
		return nil
	}
	v := *rec.CumulativeValue - *prior.CumulativeValue
	return &v
}

type monthKey struct {
	groupKey
	month int
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
