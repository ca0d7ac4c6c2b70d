package filter

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Summary returns the effective criteria in canonical textual form:
// lower-case names, normalised prefixes and port ranges.
func (f *Filter) Summary() Criteria {
	var c Criteria
	if f == nil {
		return c
	}
	for _, p := range f.protocols {
		c.Protocols = append(c.Protocols, p.Name)
	}
	c.Interfaces = append(c.Interfaces, f.interfaces...)
	for _, a := range f.actions {
		c.Actions = append(c.Actions, a.String())
	}
	for _, p := range f.srcNets {
		c.SrcIPs = append(c.SrcIPs, p.String())
	}
	for _, p := range f.dstNets {
		c.DstIPs = append(c.DstIPs, p.String())
	}
	for _, s := range f.srcPortSpecs {
		c.SrcPorts = append(c.SrcPorts, s.String())
	}
	for _, s := range f.dstPortSpecs {
		c.DstPorts = append(c.DstPorts, s.String())
	}
	return c
}

// YAML renders the summary. A filter without predicates renders as a
// single comment line.
func (f *Filter) YAML() ([]byte, error) {
	c := f.Summary()
	if c.Empty() {
		return []byte("# no criteria: every record matches\n"), nil
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("filter: encode summary: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("filter: encode summary: %w", err)
	}
	return buf.Bytes(), nil
}

// String is a compact one-line form used in the status bar and logs.
func (f *Filter) String() string {
	c := f.Summary()
	if c.Empty() {
		return "all records"
	}
	var buf bytes.Buffer
	add := func(name string, vals []string) {
		if len(vals) == 0 {
			return
		}
		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}
		fmt.Fprintf(&buf, "%s=%s", name, strings.Join(vals, ","))
	}
	add("if", c.Interfaces)
	add("proto", c.Protocols)
	add("action", c.Actions)
	add("src", c.SrcIPs)
	add("dst", c.DstIPs)
	add("sport", c.SrcPorts)
	add("dport", c.DstPorts)
	return buf.String()
}
