package filter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tinytelemetry/pfwatch/internal/cidr"
	"github.com/tinytelemetry/pfwatch/internal/model"
	"github.com/tinytelemetry/pfwatch/internal/portrange"
)

// Criteria is the textual form of a filter as it arrives from flags,
// environment or the config file.
type Criteria struct {
	Interfaces []string `mapstructure:"interfaces" yaml:"interfaces,omitempty" json:"interfaces,omitempty"`
	Protocols  []string `mapstructure:"protocols" yaml:"protocols,omitempty" json:"protocols,omitempty"`
	Actions    []string `mapstructure:"actions" yaml:"actions,omitempty" json:"actions,omitempty"`
	SrcIPs     []string `mapstructure:"src-ip" yaml:"src-ip,omitempty" json:"src_ip,omitempty"`
	DstIPs     []string `mapstructure:"dst-ip" yaml:"dst-ip,omitempty" json:"dst_ip,omitempty"`
	SrcPorts   []string `mapstructure:"src-port" yaml:"src-port,omitempty" json:"src_port,omitempty"`
	DstPorts   []string `mapstructure:"dst-port" yaml:"dst-port,omitempty" json:"dst_port,omitempty"`
}

// Empty reports whether no criterion is set.
func (c Criteria) Empty() bool {
	return len(c.Interfaces) == 0 && len(c.Protocols) == 0 && len(c.Actions) == 0 &&
		len(c.SrcIPs) == 0 && len(c.DstIPs) == 0 && len(c.SrcPorts) == 0 && len(c.DstPorts) == 0
}

// CriterionError reports one literal that could not be parsed.
type CriterionError struct {
	Field   string
	Literal string
	Err     error
}

func (e *CriterionError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Literal, e.Err)
}

func (e *CriterionError) Unwrap() error { return e.Err }

// Build parses every literal in c and returns the resulting filter. All
// literals are validated before anything is inserted; if any of them is
// malformed Build returns every failure joined and no filter.
func Build(c Criteria) (*Filter, error) {
	var errs []error
	fail := func(field, lit string, err error) {
		errs = append(errs, &CriterionError{Field: field, Literal: lit, Err: err})
	}

	var protocols []model.Protocol
	for _, lit := range c.Protocols {
		p, err := model.ParseProtocol(lit)
		if err != nil {
			fail("protocol", lit, err)
			continue
		}
		protocols = append(protocols, p)
	}

	var actions []model.Action
	for _, lit := range c.Actions {
		a, err := model.ParseAction(lit)
		if err != nil {
			fail("action", lit, err)
			continue
		}
		actions = append(actions, a)
	}

	var interfaces []string
	for _, lit := range c.Interfaces {
		name := strings.TrimSpace(lit)
		if name == "" {
			fail("interface", lit, errors.New("empty interface name"))
			continue
		}
		interfaces = append(interfaces, name)
	}

	parseNets := func(field string, lits []string) []cidr.Prefix {
		var out []cidr.Prefix
		for _, lit := range lits {
			p, err := cidr.ParsePrefix(lit)
			if err != nil {
				fail(field, lit, err)
				continue
			}
			out = append(out, p)
		}
		return out
	}
	srcNets := parseNets("src-ip", c.SrcIPs)
	dstNets := parseNets("dst-ip", c.DstIPs)

	parsePorts := func(field string, lits []string) []portrange.Spec {
		var out []portrange.Spec
		for _, lit := range lits {
			s, err := portrange.ParseSpec(lit)
			if err != nil {
				fail(field, lit, err)
				continue
			}
			out = append(out, s)
		}
		return out
	}
	srcPorts := parsePorts("src-port", c.SrcPorts)
	dstPorts := parsePorts("dst-port", c.DstPorts)

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	f := New()
	for _, p := range protocols {
		f.AddProtocol(p)
	}
	for _, name := range interfaces {
		f.AddInterface(name)
	}
	for _, a := range actions {
		f.AddAction(a)
	}
	for _, p := range srcNets {
		f.AddSourceNetwork(p)
	}
	for _, p := range dstNets {
		f.AddDestinationNetwork(p)
	}
	for _, s := range srcPorts {
		f.AddSourcePort(s)
	}
	for _, s := range dstPorts {
		f.AddDestinationPort(s)
	}
	return f, nil
}
