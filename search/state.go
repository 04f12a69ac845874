package search

type Phase int

const (
	Initializing Phase = iota
	Searching
	ThresholdReached
	Exhausted
	NoValidCandidate
	IterationLimit
	Terminated
)

func (p Phase) String() string {
	switch p {
	case Initializing:
		return "initializing"
	case Searching:
		return "searching"
	case ThresholdReached:
		return "threshold-reached"
	case Exhausted:
		return "exhausted"
	case NoValidCandidate:
		return "no-valid-candidate"
	case IterationLimit:
		return "iteration-limit"
	case Terminated:
		return "terminated"
	}
	return "unknown"
}

// RestLabel names the checkpoint written when the search stops without a
// threshold being crossed.
const RestLabel = "REST"

// Record is one evaluated design kept in the history.
type Record struct {
	Iteration int
	Track     int
	Candidate int
	Design    string
	KStream   KStream
	Metrics
}

// Checkpoint is the design retained for a threshold.
type Checkpoint struct {
	Label     string
	Threshold float64
	Reason    Phase
	Record
}

// State is the complete search state between two steps. Driver.Step returns
// a new State and never modifies the one it is given.
type State struct {
	// Phase is Searching while more steps are possible and Terminated after.
	Phase Phase
	// Transition is the last transition taken, one of Initializing,
	// Searching, ThresholdReached, Exhausted, NoValidCandidate or
	// IterationLimit.
	Transition Phase
	Iteration  int
	// Partitions follows the top-ranked survivor of each accepted step.
	Partitions  []Partition
	Tracks      []KStream
	Explored    *ExploredSet
	Ladder      Ladder
	History     []Record
	Checkpoints []Checkpoint
}

func (s State) Done() bool { return s.Phase == Terminated }

// Ranks returns the current rank of every partition.
func (s State) Ranks() KStream {
	ks := make(KStream, len(s.Partitions))
	for i, p := range s.Partitions {
		ks[i] = p.Rank
	}
	return ks
}

// Baseline is the unmodified design evaluated at iteration 0.
func (s State) Baseline() Record { return s.History[0] }

// Leader is the top-ranked design of the last accepted step, the baseline
// before the first one.
func (s State) Leader() Record { return s.History[len(s.History)-len(s.Tracks)] }

func (s State) clone() State {
	out := s
	out.Partitions = append([]Partition(nil), s.Partitions...)
	out.Tracks = make([]KStream, len(s.Tracks))
	for i, t := range s.Tracks {
		out.Tracks[i] = t.Clone()
	}
	if s.Explored != nil {
		out.Explored = s.Explored.Clone()
	}
	out.Ladder = append(Ladder(nil), s.Ladder...)
	out.History = append([]Record(nil), s.History...)
	out.Checkpoints = append([]Checkpoint(nil), s.Checkpoints...)
	return out
}

// best returns the smallest design in the history whose error does not
// exceed threshold, the earliest one on ties. The baseline has no error, so
// there always is one.
func (s State) best(threshold float64) Record {
	best := s.History[0]
	for _, r := range s.History[1:] {
		if r.Error <= threshold && r.Area < best.Area {
			best = r
		}
	}
	return best
}
