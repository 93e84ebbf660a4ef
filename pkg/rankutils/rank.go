/*
This file contains a small deterministic ranking func used for ordering
prototypes by value. The main implementation is RankDesc(...), which does a
bubble-style ordered insertion into a fixed result slice; tie-breaking
fields are baked into the comparison so the same input always gives the
same order (reproducibility, experiments get re-run a lot).

*/

package rankutils

// Item is one ranking candidate. Value decides the order; Rep, Tick and ID
// are tie-breakers, in that order.
type Item struct {
	// Stable identity, last-resort tie-breaker (ascending).
	ID string
	// Primary ranking key (descending).
	Value float64
	// First tie-breaker (descending).
	Rep float64
	// Second tie-breaker; earlier ticks rank higher.
	Tick int
}

// Internal type for tracking ranked elements.
type resultItem struct {
	// RankDesc operates on a slice and returns a slice of indexes which
	// represent elements in it. This var represents those indexes.
	index int
	item  Item
	// Used as a signal for whether or not the instance of resultItem
	// is actually used and not just initialised.
	set bool
}

// better reports whether a should rank above b. The full chain is:
// value desc, representativeness desc, arrival tick asc, id asc.
func better(a, b Item) bool {
	if a.Value != b.Value {
		return a.Value > b.Value
	}
	if a.Rep != b.Rep {
		return a.Rep > b.Rep
	}
	if a.Tick != b.Tick {
		return a.Tick < b.Tick
	}
	return a.ID < b.ID
}

// bubble inserts the 'insertee' into 'items' in an ordered manner (in place),
// without changing the length of 'items' (i.e a value will be lost). Note:
// only works as expected if the 'items' slice is already ordered.
func bubble(insertee *resultItem, items []resultItem) {
	for i := 0; i < len(items); i++ {
		if !items[i].set || better(insertee.item, items[i].item) {
			*insertee, items[i] = items[i], *insertee
		}
	}
}

// resItems2Indexes simply converts a slice of resultItems to a slice of
// contained index values.
func resItems2Indexes(items []resultItem) []int {
	res := make([]int, 0, len(items))
	for i := 0; i < len(items); i++ {
		if items[i].set {
			res = append(res, items[i].index)
		}
	}
	return res
}

// RankDesc orders all items best-first and returns their indexes. It is a
// pure function of its input; ranking the same slice twice yields an
// identical order.
func RankDesc(items []Item) []int {
	res := make([]resultItem, len(items))
	for i, item := range items {
		newSlot := &resultItem{index: i, item: item, set: true}
		bubble(newSlot, res)
	}
	return resItems2Indexes(res)
}
