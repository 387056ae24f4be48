package engine

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ahrav/go-slate/internal/domain"
	"github.com/ahrav/go-slate/internal/expr"
)

// Resolve computes every derived value in derive against env, merging
// each result into env as it lands, and returns the derived-only map.
//
// Derive expressions form an implicit dependency graph with no declared
// order, so Resolve runs a repeated-pass fixed point: each pass attempts
// every unresolved expression in sorted name order; an evaluation that
// fails only because of an unknown name is deferred to the next pass,
// anything else aborts immediately. The sweep terminates when all names
// resolve, when a pass makes no progress, or after len(derive) passes
// (a DAG of n entries needs at most n). Names still unresolved at
// termination are reported as a DerivationError carrying the stuck keys
// and, when the stall is mutual, one witness cycle. That error is a
// configuration defect in the family data and aborts instance creation.
func Resolve(familyID string, derive map[string]string, env map[string]float64) (map[string]float64, error) {
	derived := make(map[string]float64, len(derive))
	if len(derive) == 0 {
		return derived, nil
	}

	parsed := make(map[string]*expr.Expression, len(derive))
	for name, text := range derive {
		e, err := expr.Parse(text)
		if err != nil {
			return nil, fmt.Errorf("derive %q (%s): %w", name, text, err)
		}
		parsed[name] = e
	}

	unresolved := make(map[string]struct{}, len(derive))
	for name := range derive {
		unresolved[name] = struct{}{}
	}

	for pass := 0; pass < len(derive); pass++ {
		progressed := false
		for _, name := range sortedKeys(unresolved) {
			v, err := parsed[name].Eval(env)
			if err != nil {
				if errors.Is(err, expr.ErrUnknownName) {
					continue // dependency not resolved yet, try next pass
				}
				return nil, fmt.Errorf("derive %q (%s): %w", name, derive[name], err)
			}
			num, ok := v.Number()
			if !ok {
				return nil, fmt.Errorf("derive %q (%s): %w: derived values must be numeric", name, derive[name], expr.ErrType)
			}
			env[name] = num
			derived[name] = num
			delete(unresolved, name)
			progressed = true
		}
		if len(unresolved) == 0 {
			return derived, nil
		}
		if !progressed {
			break
		}
	}

	stuck := sortedKeys(unresolved)
	return nil, &domain.DerivationError{
		FamilyID:   familyID,
		Unresolved: stuck,
		Cycle:      findCycle(parsed, unresolved),
	}
}

// findCycle extracts one deterministic cycle witness among the unresolved
// derive entries, following only edges between unresolved names. A stall
// caused by a reference to a name that simply never exists has no cycle,
// and the witness is empty.
func findCycle(parsed map[string]*expr.Expression, unresolved map[string]struct{}) []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	deps := make(map[string][]string, len(unresolved))
	for name := range unresolved {
		for _, ref := range parsed[name].Names() {
			if _, ok := unresolved[ref]; ok {
				deps[name] = append(deps[name], ref)
			}
		}
		sort.Strings(deps[name])
	}

	color := make(map[string]int, len(unresolved))
	parent := make(map[string]string, len(unresolved))
	var cycle []string

	var dfs func(u string) bool
	dfs = func(u string) bool {
		color[u] = gray
		for _, v := range deps[u] {
			switch color[v] {
			case white:
				parent[v] = u
				if dfs(v) {
					return true
				}
			case gray:
				// Walk the parent chain back to v to materialize the loop.
				cycle = []string{v}
				for w := u; w != v; w = parent[w] {
					cycle = append(cycle, w)
				}
				cycle = append(cycle, v)
				reverseMiddle(cycle)
				return true
			}
		}
		color[u] = black
		return false
	}

	for _, name := range sortedKeys(unresolved) {
		if color[name] == white && dfs(name) {
			return cycle
		}
	}
	return nil
}

// reverseMiddle flips cycle[1:len-1] so the witness reads in dependency
// order: a -> b -> a rather than the backtracking order DFS produced.
func reverseMiddle(cycle []string) {
	for i, j := 1, len(cycle)-2; i < j; i, j = i+1, j-1 {
		cycle[i], cycle[j] = cycle[j], cycle[i]
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
