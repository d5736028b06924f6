package services

import (
	"encoding/json"
	"fmt"
	"os"
)

// UnmarshalJSON accepts the bank document's [evocative, plain] pair form.
func (q *QuestionPair) UnmarshalJSON(b []byte) error {
	var arr []string
	if err := json.Unmarshal(b, &arr); err != nil {
		return err
	}
	if len(arr) != 2 {
		return fmt.Errorf("question pair must have exactly 2 phrasings, got %d", len(arr))
	}
	q.Evocative, q.Plain = arr[0], arr[1]
	return nil
}

// MarshalJSON renders the pair back into its two-element array form.
func (q QuestionPair) MarshalJSON() ([]byte, error) {
	return json.Marshal([]string{q.Evocative, q.Plain})
}

// Bank is the immutable question bank: every function mapped to its ordered
// question pairs. It is loaded once at startup; a missing or malformed
// document is fatal.
type Bank struct {
	byFunction map[Function][]QuestionPair
	flat       []BankQuestion
}

// LoadBank reads and validates the bank document at path.
func LoadBank(path string) (*Bank, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question bank %s: %w", path, err)
	}
	var doc map[Function][]QuestionPair
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse question bank %s: %w", path, err)
	}
	return NewBank(doc)
}

// NewBank validates the mapping and builds the canonical flattened order.
func NewBank(doc map[Function][]QuestionPair) (*Bank, error) {
	for fn := range doc {
		if _, ok := Opposite[fn]; !ok {
			return nil, fmt.Errorf("question bank: unknown function %q", fn)
		}
	}
	b := &Bank{byFunction: map[Function][]QuestionPair{}}
	for _, fn := range FunctionOrder {
		pairs := doc[fn]
		if len(pairs) == 0 {
			return nil, fmt.Errorf("question bank: function %s has no questions", fn)
		}
		for i, p := range pairs {
			if p.Evocative == "" || p.Plain == "" {
				return nil, fmt.Errorf("question bank: %s question %d has an empty phrasing", fn, i+1)
			}
		}
		b.byFunction[fn] = append([]QuestionPair(nil), pairs...)
		for _, p := range pairs {
			b.flat = append(b.flat, BankQuestion{Function: fn, Pair: p})
		}
	}
	return b, nil
}

// Total is the number of questions across all functions.
func (b *Bank) Total() int { return len(b.flat) }

// Questions returns the pairs for one function in bank order.
func (b *Bank) Questions(fn Function) []QuestionPair {
	return append([]QuestionPair(nil), b.byFunction[fn]...)
}

// Flatten returns a fresh copy of every (function, pair) entry in canonical
// function order, ready to be shuffled into a session sequence.
func (b *Bank) Flatten() []BankQuestion {
	return append([]BankQuestion(nil), b.flat...)
}
