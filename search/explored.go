package search

import mapset "github.com/deckarep/golang-set/v2"

// ExploredSet remembers every k-stream ever generated so none is evaluated
// twice.
type ExploredSet struct {
	keys mapset.Set[string]
}

func NewExploredSet(streams ...KStream) *ExploredSet {
	e := &ExploredSet{keys: mapset.NewThreadUnsafeSet[string]()}
	for _, k := range streams {
		e.Add(k)
	}
	return e
}

// Add inserts k and reports whether it was new.
func (e *ExploredSet) Add(k KStream) bool { return e.keys.Add(k.Key()) }

func (e *ExploredSet) Contains(k KStream) bool { return e.keys.Contains(k.Key()) }

func (e *ExploredSet) Len() int { return e.keys.Cardinality() }

func (e *ExploredSet) Clone() *ExploredSet { return &ExploredSet{keys: e.keys.Clone()} }
