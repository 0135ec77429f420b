package importer

import (
	"log"

	"github.com/example/traymenu/internal/bus"
	"github.com/example/traymenu/internal/logging"
	"github.com/example/traymenu/internal/protocol"
)

func (i *Importer) itemUpdated(args []any) {
	if i.closed || len(args) < 1 {
		return
	}
	n, ok := protocol.AsInt32(args[0])
	if !ok {
		log.Printf("importer: malformed %s signal", protocol.SignalItemUpdated)
		return
	}
	id := protocol.ItemID(n)
	a, ok := i.items.Node(id)
	if !ok {
		logging.Debugf("importer: update for unknown item %d", id)
		return
	}
	names := updateNames(a)
	i.call(id, func(p *bus.Pending) {
		i.propertiesFetched(id, names, p)
	}, protocol.MethodGetProperties, int32(id), names)
}

func (i *Importer) propertiesFetched(id protocol.ItemID, names []string, p *bus.Pending) {
	if err := p.Err(); err != nil {
		log.Printf("importer: GetProperties(%d) failed: %v", id, err)
		return
	}
	props, ok := protocol.AsMap(p.Value(0))
	if !ok {
		log.Printf("importer: GetProperties(%d) returned a malformed reply", id)
		return
	}
	a, ok := i.items.Node(id)
	if !ok {
		logging.Debugf("importer: item %d disappeared before its update arrived", id)
		return
	}
	if !i.compatible(a, protocol.Properties(props)) {
		i.layouts.Add(i.parentID(a))
		return
	}
	i.apply(a, protocol.Properties(props), names)
}

func (i *Importer) itemPropertyUpdated(args []any) {
	if i.closed || len(args) < 3 {
		return
	}
	n, ok := protocol.AsInt32(args[0])
	if !ok {
		return
	}
	name, ok := protocol.AsString(args[1])
	if !ok {
		log.Printf("importer: malformed %s signal", protocol.SignalItemPropertyUpdated)
		return
	}
	a, ok := i.items.Node(protocol.ItemID(n))
	if !ok {
		return
	}
	props := protocol.Properties{name: args[2]}
	if name == protocol.PropType && !i.compatible(a, props) {
		i.layouts.Add(i.parentID(a))
		return
	}
	i.apply(a, props, []string{name})
}

// layoutUpdated queues a children fetch for the parent, unless the
// about-to-show flow already refreshed it.
func (i *Importer) layoutUpdated(args []any) {
	if i.closed || len(args) < 2 {
		return
	}
	n, ok := protocol.AsInt32(args[1])
	if !ok {
		log.Printf("importer: malformed %s signal", protocol.SignalLayoutUpdated)
		return
	}
	id := protocol.ItemID(n)
	if _, ok := i.refreshedByShow[id]; ok {
		delete(i.refreshedByShow, id)
		logging.Debugf("importer: layout of item %d already refreshed", id)
		return
	}
	i.layouts.Add(id)
}

func (i *Importer) activationRequested(args []any) {
	if i.closed || len(args) < 1 {
		return
	}
	n, ok := protocol.AsInt32(args[0])
	if !ok {
		return
	}
	a, ok := i.items.Node(protocol.ItemID(n))
	if !ok {
		logging.Debugf("importer: activation of unknown item %d", n)
		return
	}
	for _, fn := range i.activation {
		fn(a)
	}
}
