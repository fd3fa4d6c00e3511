package analysis

import (
	"sort"
	"strconv"
	"strings"
)

// LiveState is the dataflow fact attached to one instruction boundary:
// the set of local slots that have been allocated (written) but not
// yet Released or consumed by a Return, mirroring the "resources
// acquired within an instruction are released on all exit paths"
// invariant spec.md §5 states for the interpreter's own runtime
// bookkeeping — here checked statically over the assembler's output
// instead of simulated at execution time.
type LiveState struct {
	Live        map[int]bool
	Unreachable bool
}

// NewLiveState creates an empty state with the given locals already
// live (used to seed a block's argument locals).
func NewLiveState(seed ...int) *LiveState {
	s := &LiveState{Live: make(map[int]bool, len(seed))}
	for _, l := range seed {
		s.Live[l] = true
	}
	return s
}

// Clone deep-copies the state for independent successor propagation.
func (s *LiveState) Clone() *LiveState {
	live := make(map[int]bool, len(s.Live))
	for k, v := range s.Live {
		live[k] = v
	}
	return &LiveState{Live: live, Unreachable: s.Unreachable}
}

// Equal reports whether two states carry the same live set. The
// engine itself does not call it: Merge's result drives the fixed
// point and Diff drives join-mismatch reports.
func (s *LiveState) Equal(other *LiveState) bool {
	if len(s.Live) != len(other.Live) {
		return false
	}
	for k := range s.Live {
		if !other.Live[k] {
			return false
		}
	}
	return true
}

// Merge unions other's live set into s (conservative: a local live on
// either path is treated as live after the join) and reports whether s
// gained any local, which tells the engine to revisit the successor.
// A local live in s but not in other does not count as a change; the
// abort-mirror finding itself is reported separately, from the fixed
// point (Engine.reportJoinMismatches).
func (s *LiveState) Merge(other *LiveState) (changed bool) {
	if other.Unreachable {
		return false
	}
	if s.Unreachable {
		*s = *other.Clone()
		return true
	}
	for k := range other.Live {
		if !s.Live[k] {
			s.Live[k] = true
			changed = true
		}
	}
	return changed
}

// Diff returns locals present in exactly one of s, other — the
// mismatched-release set for a diagnostic message.
func (s *LiveState) Diff(other *LiveState) []int {
	var d []int
	for k := range s.Live {
		if !other.Live[k] {
			d = append(d, k)
		}
	}
	for k := range other.Live {
		if !s.Live[k] {
			d = append(d, k)
		}
	}
	sort.Ints(d)
	return d
}

func (s *LiveState) String() string {
	if s.Unreachable {
		return "(unreachable)"
	}
	keys := make([]int, 0, len(s.Live))
	for k := range s.Live {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	locals := make([]string, len(keys))
	for i, k := range keys {
		locals[i] = strconv.Itoa(k)
	}
	return strings.Join(locals, ",")
}
