package services

import "sort"

// Classification is the classifier output: the four-letter label, the
// reduced four-function preference stack, and the full eight-function
// ranking the stack was derived from.
type Classification struct {
	Label   TypeLabel
	Stack   []Function
	Ranking []Function
}

// Classify maps a completed session's score mapping to a type label and
// preference stack. It is pure: identical scores always produce identical
// output. Score ties rank in canonical bank order (FunctionOrder).
func Classify(scores map[Function]int) Classification {
	ranking := RankFunctions(scores)
	stack := reduceStack(ranking)
	return Classification{Label: labelFor(stack), Stack: stack, Ranking: ranking}
}

// RankFunctions orders all eight functions by score descending. The sort is
// stable over FunctionOrder, so equal scores keep bank order.
func RankFunctions(scores map[Function]int) []Function {
	out := append([]Function(nil), FunctionOrder...)
	sort.SliceStable(out, func(i, j int) bool { return scores[out[i]] > scores[out[j]] })
	return out
}

// reduceStack walks the ranking and keeps the first four functions whose
// opposite is not already kept, so the stack never holds both members of an
// axis.
func reduceStack(ranking []Function) []Function {
	stack := make([]Function, 0, 4)
	for _, fn := range ranking {
		if len(stack) == 4 {
			break
		}
		conflict := false
		for _, kept := range stack {
			if Opposite[kept] == fn {
				conflict = true
				break
			}
		}
		if !conflict {
			stack = append(stack, fn)
		}
	}
	return stack
}

// labelFor matches the stack's leading pair, then the pair at positions
// two-three, against the sixteen canonical dominant/auxiliary stacks. No
// match yields the undetermined sentinel rather than a fabricated label.
func labelFor(stack []Function) TypeLabel {
	if len(stack) >= 2 {
		if label, ok := typeByStack[stackPrefix{stack[0], stack[1]}]; ok {
			return label
		}
	}
	if len(stack) >= 3 {
		if label, ok := typeByStack[stackPrefix{stack[1], stack[2]}]; ok {
			return label
		}
	}
	return TypeUndetermined
}
