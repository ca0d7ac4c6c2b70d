// Package filter combines the per-field predicates a user configures into
// one conjunctive match over decoded firewall records.
package filter

import (
	"strings"

	"github.com/tinytelemetry/pfwatch/internal/cidr"
	"github.com/tinytelemetry/pfwatch/internal/model"
	"github.com/tinytelemetry/pfwatch/internal/portrange"
)

// Filter is the conjunction of up to seven optional predicates. A
// predicate that was never added is a wildcard. Filters are built once
// and are safe for concurrent Evaluate calls afterwards.
type Filter struct {
	protocols  []model.Protocol
	interfaces []string
	actions    []model.Action

	srcNets []cidr.Prefix
	dstNets []cidr.Prefix
	srcTree cidr.Filter
	dstTree cidr.Filter

	srcPortSpecs []portrange.Spec
	dstPortSpecs []portrange.Spec
	srcPorts     portrange.Index
	dstPorts     portrange.Index
}

// New returns a filter with no predicates; it accepts every record.
func New() *Filter {
	return &Filter{}
}

func (f *Filter) AddProtocol(p model.Protocol) {
	f.protocols = append(f.protocols, p)
}

// AddInterface adds an interface name. Names compare case-insensitively.
func (f *Filter) AddInterface(name string) {
	f.interfaces = append(f.interfaces, strings.ToLower(strings.TrimSpace(name)))
}

func (f *Filter) AddAction(a model.Action) {
	f.actions = append(f.actions, a)
}

func (f *Filter) AddSourceNetwork(p cidr.Prefix) {
	f.srcNets = append(f.srcNets, p)
	f.srcTree.Insert(p)
}

func (f *Filter) AddDestinationNetwork(p cidr.Prefix) {
	f.dstNets = append(f.dstNets, p)
	f.dstTree.Insert(p)
}

func (f *Filter) AddSourcePort(s portrange.Spec) {
	f.srcPortSpecs = append(f.srcPortSpecs, s)
	f.srcPorts.Insert(s)
}

func (f *Filter) AddDestinationPort(s portrange.Spec) {
	f.dstPortSpecs = append(f.dstPortSpecs, s)
	f.dstPorts.Insert(s)
}

// Active reports whether at least one predicate is configured.
func (f *Filter) Active() bool {
	if f == nil {
		return false
	}
	return f.protocols != nil || f.interfaces != nil || f.actions != nil ||
		f.srcNets != nil || f.dstNets != nil ||
		!f.srcPorts.Empty() || !f.dstPorts.Empty()
}

// Evaluate reports whether rec satisfies every configured predicate. A
// nil filter accepts everything. When a port predicate is configured,
// records whose protocol carries no ports are rejected.
func (f *Filter) Evaluate(rec *model.LogRecord) bool {
	if f == nil {
		return true
	}
	if f.protocols != nil && !f.matchProtocol(rec.Protocol) {
		return false
	}
	if f.interfaces != nil && !f.matchInterface(rec.Interface) {
		return false
	}
	if f.actions != nil && !f.matchAction(rec.Action) {
		return false
	}
	if f.srcNets != nil && !f.srcTree.Lookup(rec.Src) {
		return false
	}
	if f.dstNets != nil && !f.dstTree.Lookup(rec.Dst) {
		return false
	}
	if f.srcPorts.Empty() && f.dstPorts.Empty() {
		return true
	}

	ports, ok := model.PortsOf(rec.Payload)
	if !ok {
		return false
	}
	if !f.srcPorts.Empty() && !f.srcPorts.Contains(ports.Src) {
		return false
	}
	if !f.dstPorts.Empty() && !f.dstPorts.Contains(ports.Dst) {
		return false
	}
	return true
}

func (f *Filter) matchProtocol(p model.Protocol) bool {
	for _, want := range f.protocols {
		if want.Matches(p) {
			return true
		}
	}
	return false
}

func (f *Filter) matchInterface(name string) bool {
	for _, want := range f.interfaces {
		if strings.EqualFold(want, name) {
			return true
		}
	}
	return false
}

func (f *Filter) matchAction(a model.Action) bool {
	for _, want := range f.actions {
		if want == a {
			return true
		}
	}
	return false
}
