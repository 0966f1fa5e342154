// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// mutate.go holds the structural mutators for repeatable blocks. Every
// mutator operates on a deep copy and returns a new document, so the
// pre- and post-mutation states never alias and the editor's snapshot
// comparison stays meaningful.
package document

// Direction moves an item one position within its owning list.
type Direction int

const (
	MoveUp   Direction = -1
	MoveDown Direction = 1
)

// AddTrustMetric appends a metric to the trust bar.
func AddTrustMetric(doc Document, m Metric) Document {
	out := doc.Clone()
	out.Trust.Metrics = append(out.Trust.Metrics, m)
	return out
}

// RemoveTrustMetric removes the metric at index. Out-of-range is a no-op.
func RemoveTrustMetric(doc Document, index int) Document {
	out := doc.Clone()
	out.Trust.Metrics = removeAt(out.Trust.Metrics, index)
	return out
}

// MoveTrustMetric swaps the metric at index with its neighbor in the given
// direction. Moving the first item up or the last item down is a no-op.
func MoveTrustMetric(doc Document, index int, dir Direction) Document {
	out := doc.Clone()
	out.Trust.Metrics = swapAdjacent(out.Trust.Metrics, index, dir)
	return out
}

// AddServiceItem appends an item to the services list.
func AddServiceItem(doc Document, item ServiceItem) Document {
	out := doc.Clone()
	out.Services.Items = append(out.Services.Items, item)
	return out
}

// RemoveServiceItem removes the service at index. Out-of-range is a no-op.
func RemoveServiceItem(doc Document, index int) Document {
	out := doc.Clone()
	out.Services.Items = removeAt(out.Services.Items, index)
	return out
}

// MoveServiceItem swaps the service at index with its neighbor.
func MoveServiceItem(doc Document, index int, dir Direction) Document {
	out := doc.Clone()
	out.Services.Items = swapAdjacent(out.Services.Items, index, dir)
	return out
}

// AddProcessStep appends a step to the process section.
func AddProcessStep(doc Document, step ProcessStep) Document {
	out := doc.Clone()
	out.Process.Steps = append(out.Process.Steps, step)
	return out
}

// RemoveProcessStep removes the step at index. Out-of-range is a no-op.
func RemoveProcessStep(doc Document, index int) Document {
	out := doc.Clone()
	out.Process.Steps = removeAt(out.Process.Steps, index)
	return out
}

// MoveProcessStep swaps the step at index with its neighbor.
func MoveProcessStep(doc Document, index int, dir Direction) Document {
	out := doc.Clone()
	out.Process.Steps = swapAdjacent(out.Process.Steps, index, dir)
	return out
}

// ToggleTheme flips light to dark and back. A tracked mutation like any
// other; it affects the editor's dirty status.
func ToggleTheme(doc Document) Document {
	out := doc.Clone()
	if out.Theme == ThemeDark {
		out.Theme = ThemeLight
	} else {
		out.Theme = ThemeDark
	}
	return out
}

// removeAt drops the element at index, preserving order. Out-of-range
// indices leave the list unchanged.
func removeAt[T any](items []T, index int) []T {
	if index < 0 || index >= len(items) {
		return items
	}
	return append(items[:index], items[index+1:]...)
}

// swapAdjacent exchanges items[index] with its neighbor in dir. It is a
// no-op when the move would cross either end of the list.
func swapAdjacent[T any](items []T, index int, dir Direction) []T {
	target := index + int(dir)
	if index < 0 || index >= len(items) || target < 0 || target >= len(items) {
		return items
	}
	items[index], items[target] = items[target], items[index]
	return items
}
