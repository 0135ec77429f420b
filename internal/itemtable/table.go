// Package itemtable maps item ids to live nodes and back, and caches a
// property snapshot per node.
package itemtable

import (
	"errors"

	"github.com/example/traymenu/internal/protocol"
)

// ErrTracked reports an attempt to allocate an id for a node that already has
// one.
var ErrTracked = errors.New("itemtable: node already tracked")

// ErrReserved reports an attempt to bind the root id or a taken id.
var ErrReserved = errors.New("itemtable: id not available")

// Table is the bidirectional id/node map. N is the node type, M the menu type
// that ResolveMenu returns. Table is not safe for concurrent use.
type Table[N comparable, M comparable] struct {
	root    M
	submenu func(N) M

	nextID    protocol.ItemID
	nodeForID map[protocol.ItemID]N
	idForNode map[N]protocol.ItemID
	snapshots map[protocol.ItemID]protocol.Properties
}

// New constructs a table whose id 0 resolves to root. submenu returns a
// node's child menu, or the zero M when it has none.
func New[N comparable, M comparable](root M, submenu func(N) M) *Table[N, M] {
	return &Table[N, M]{
		root:      root,
		submenu:   submenu,
		nextID:    1,
		nodeForID: make(map[protocol.ItemID]N),
		idForNode: make(map[N]protocol.ItemID),
		snapshots: make(map[protocol.ItemID]protocol.Properties),
	}
}

// Allocate assigns the next id to node. Ids are never reused.
func (t *Table[N, M]) Allocate(node N) (protocol.ItemID, error) {
	var zero N
	if node == zero {
		return protocol.RootID, ErrReserved
	}
	if _, ok := t.idForNode[node]; ok {
		return protocol.RootID, ErrTracked
	}
	id := t.nextID
	t.nextID++
	t.nodeForID[id] = node
	t.idForNode[node] = id
	return id, nil
}

// Bind records a node under an id chosen elsewhere, as the importer does with
// ids received from the exporter.
func (t *Table[N, M]) Bind(id protocol.ItemID, node N) error {
	var zero N
	if id == protocol.RootID || node == zero {
		return ErrReserved
	}
	if _, ok := t.nodeForID[id]; ok {
		return ErrReserved
	}
	if _, ok := t.idForNode[node]; ok {
		return ErrTracked
	}
	t.nodeForID[id] = node
	t.idForNode[node] = id
	if id >= t.nextID {
		t.nextID = id + 1
	}
	return nil
}

// Release forgets node. It only uses node as a map key, so it is safe to call
// from a before-destroy hook. Untracked nodes are ignored.
func (t *Table[N, M]) Release(node N) (protocol.ItemID, bool) {
	id, ok := t.idForNode[node]
	if !ok {
		return protocol.RootID, false
	}
	t.ReleaseID(id)
	return id, true
}

// ReleaseID forgets the node bound to id. Unknown ids are ignored.
func (t *Table[N, M]) ReleaseID(id protocol.ItemID) {
	node, ok := t.nodeForID[id]
	if !ok {
		return
	}
	delete(t.nodeForID, id)
	delete(t.idForNode, node)
	delete(t.snapshots, id)
}

// Node returns the node for id.
func (t *Table[N, M]) Node(id protocol.ItemID) (N, bool) {
	node, ok := t.nodeForID[id]
	return node, ok
}

// ID returns the id of node, or RootID when the node is zero or untracked.
func (t *Table[N, M]) ID(node N) protocol.ItemID {
	var zero N
	if node == zero {
		return protocol.RootID
	}
	return t.idForNode[node]
}

// Contains reports whether id is bound.
func (t *Table[N, M]) Contains(id protocol.ItemID) bool {
	_, ok := t.nodeForID[id]
	return ok
}

// ResolveMenu returns the root for id 0 and otherwise the child menu of the
// node bound to id.
func (t *Table[N, M]) ResolveMenu(id protocol.ItemID) (M, bool) {
	var zero M
	if id == protocol.RootID {
		return t.root, t.root != zero
	}
	node, ok := t.nodeForID[id]
	if !ok {
		return zero, false
	}
	m := t.submenu(node)
	return m, m != zero
}

// Snapshot returns the cached properties of id.
func (t *Table[N, M]) Snapshot(id protocol.ItemID) (protocol.Properties, bool) {
	props, ok := t.snapshots[id]
	return props, ok
}

// SetSnapshot caches props for a tracked id. Untracked ids are ignored.
func (t *Table[N, M]) SetSnapshot(id protocol.ItemID, props protocol.Properties) {
	if _, ok := t.nodeForID[id]; !ok {
		return
	}
	t.snapshots[id] = props
}

// Len returns the number of tracked nodes.
func (t *Table[N, M]) Len() int {
	return len(t.nodeForID)
}

// NextID returns the id the next Allocate will hand out.
func (t *Table[N, M]) NextID() protocol.ItemID {
	return t.nextID
}

// Each calls fn for every tracked pair in unspecified order.
func (t *Table[N, M]) Each(fn func(protocol.ItemID, N)) {
	for id, node := range t.nodeForID {
		fn(id, node)
	}
}
