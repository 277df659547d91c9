// Package table provides a generic typed in-memory table with relational
// transforms: selection, projection, inner join, group-by and sort.
//
// Every operation returns a new table and leaves its inputs untouched, so a
// pipeline reads top to bottom:
//
//	adults := customers.Filter(func(c Customer) bool { return c.Age >= 18 })
//	joined := table.Join(sales, adults, saleCustomer, customerID, merge)
//	totals := table.GroupBy(joined, key, 0, sum)
package table

import (
	"slices"
)

// Table is an ordered collection of typed rows.
type Table[T any] struct {
	rows []T
}

// New creates a table holding a copy of rows.
func New[T any](rows ...T) *Table[T] {
	return &Table[T]{rows: slices.Clone(rows)}
}

// Len returns the number of rows.
func (t *Table[T]) Len() int {
	return len(t.rows)
}

// Rows returns a copy of the rows in table order.
func (t *Table[T]) Rows() []T {
	return slices.Clone(t.rows)
}

// Filter keeps the rows for which keep returns true, preserving order.
func (t *Table[T]) Filter(keep func(T) bool) *Table[T] {
	out := make([]T, 0, len(t.rows))
	for _, r := range t.rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return &Table[T]{rows: out}
}

// SortBy returns the rows ordered by cmp. The sort is stable.
func (t *Table[T]) SortBy(cmp func(a, b T) int) *Table[T] {
	out := slices.Clone(t.rows)
	slices.SortStableFunc(out, cmp)
	return &Table[T]{rows: out}
}

// Map projects every row through fn.
func Map[T, U any](t *Table[T], fn func(T) U) *Table[U] {
	out := make([]U, len(t.rows))
	for i, r := range t.rows {
		out[i] = fn(r)
	}
	return &Table[U]{rows: out}
}

// Join is an inner equi-join of left and right on the keys produced by
// leftKey and rightKey. Rows without a partner on the other side are dropped.
// Output follows left order; several matches for one left row follow right order.
func Join[L, R any, K comparable, O any](
	left *Table[L],
	right *Table[R],
	leftKey func(L) K,
	rightKey func(R) K,
	merge func(L, R) O,
) *Table[O] {
	index := make(map[K][]int, len(right.rows))
	for i, r := range right.rows {
		k := rightKey(r)
		index[k] = append(index[k], i)
	}

	out := make([]O, 0, len(left.rows))
	for _, l := range left.rows {
		for _, i := range index[leftKey(l)] {
			out = append(out, merge(l, right.rows[i]))
		}
	}
	return &Table[O]{rows: out}
}

// Group is one group-by result: the grouping key and its aggregate.
type Group[K comparable, A any] struct {
	Key   K
	Value A
}

// GroupBy folds rows sharing a key into one aggregate, starting each group
// from init. Groups are emitted in order of first appearance.
func GroupBy[T any, K comparable, A any](
	t *Table[T],
	key func(T) K,
	init A,
	fold func(A, T) A,
) *Table[Group[K, A]] {
	pos := make(map[K]int)
	out := make([]Group[K, A], 0)
	for _, r := range t.rows {
		k := key(r)
		i, ok := pos[k]
		if !ok {
			i = len(out)
			pos[k] = i
			out = append(out, Group[K, A]{Key: k, Value: init})
		}
		out[i].Value = fold(out[i].Value, r)
	}
	return &Table[Group[K, A]]{rows: out}
}
