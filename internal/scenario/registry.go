package scenario

import (
	"fmt"
	"sort"

	"OFTester/internal/model"
	"OFTester/internal/openflow"
)

// Factory creates a Feature.
type Factory func() Feature

// Registry maps scenario names to feature factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory. It panics if the name is already registered.
func (r *Registry) Register(name string, factory Factory) {
	if _, exists := r.factories[name]; exists {
		panic(fmt.Sprintf("scenario factory named '%s' already registered", name))
	}
	r.factories[name] = factory
}

// Lookup returns a fresh Feature for name.
func (r *Registry) Lookup(name string) (Feature, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, model.Invalid("scenario", "unknown scenario '%s'", name)
	}
	return factory(), nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builtins returns a registry holding every stock scenario.
func Builtins() *Registry {
	r := NewRegistry()
	r.Register("pps", pps)
	r.Register("pps-loop", ppsLoop)
	r.Register("goto-table", gotoTable)
	r.Register("vlan", func() Feature { return vlan(vlanVID) })
	r.Register("vlan-header", func() Feature { return vlan(0) })
	r.Register("vxlan", func() Feature { return vxlan(1) })
	r.Register("vxlan-header", func() Feature { return vxlan(0) })
	r.Register("swap", func() Feature { return fieldMove(false, openflow.DefaultFieldMove()) })
	r.Register("copy", func() Feature { return fieldMove(true, openflow.DefaultFieldMove()) })
	r.Register("rx-timestamp", func() Feature { return fieldMove(true, timestampMove(openflow.FieldNoviRxTimestamp)) })
	r.Register("tx-timestamp", func() Feature { return fieldMove(true, timestampMove(openflow.FieldNoviTxTimestamp)) })
	r.Register("metadata", metadata)
	r.Register("multicast-group", multicastGroup)
	r.Register("ingress-egress-vlan", func() Feature { return ingressEgress(0, openflow.EgressVlan, openflow.IngressVlan) })
	r.Register("ingress-egress-qnq-vlan", func() Feature { return ingressEgress(innerVID, openflow.EgressVlan, openflow.IngressVlan) })
	r.Register("ingress-egress-vxlan", func() Feature { return ingressEgress(0, openflow.EgressVxlan, openflow.IngressVxlan) })
	r.Register("ingress-egress-qnq-vxlan", func() Feature { return ingressEgress(innerVID, openflow.EgressVxlan, openflow.IngressVxlan) })
	r.Register("transit-vlan", transitVlan)
	r.Register("transit-vxlan", transitVxlan)
	return r
}
