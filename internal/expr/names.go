package expr

import "sort"

// Names returns the sorted set of environment names the expression
// references. Function names from the call allowlist are not included.
// The resolver uses this to diagnose dependency cycles among derived
// values without re-evaluating anything.
func (e *Expression) Names() []string {
	seen := map[string]struct{}{}
	collectNames(e.root, seen)
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func collectNames(n node, seen map[string]struct{}) {
	switch t := n.(type) {
	case *nameRef:
		seen[t.name] = struct{}{}
	case *unaryExpr:
		collectNames(t.operand, seen)
	case *binaryExpr:
		collectNames(t.left, seen)
		collectNames(t.right, seen)
	case *compareExpr:
		collectNames(t.left, seen)
		for _, r := range t.rights {
			collectNames(r, seen)
		}
	case *callExpr:
		for _, a := range t.args {
			collectNames(a, seen)
		}
	}
}
