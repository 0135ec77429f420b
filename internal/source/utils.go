package source

import (
	"sort"

	"github.com/example/traymenu/internal/config"
)

// EnsureSequentialOrder renumbers the items of every parent in steps of ten,
// keeping their current relative order.
func EnsureSequentialOrder(items []config.MenuItem) {
	byParent := make(map[string][]int)
	for i, item := range items {
		byParent[item.ParentID] = append(byParent[item.ParentID], i)
	}
	for _, idx := range byParent {
		sort.SliceStable(idx, func(a, b int) bool {
			return items[idx[a]].Order < items[idx[b]].Order
		})
		for n, i := range idx {
			items[i].Order = (n + 1) * 10
		}
	}
}

// NextOrder returns an order placing a new item after every existing child of
// parentID.
func NextOrder(items []config.MenuItem, parentID string) int {
	maxVal := 0
	for _, item := range items {
		if item.ParentID == parentID && item.Order > maxVal {
			maxVal = item.Order
		}
	}
	return ((maxVal / 10) + 1) * 10
}
