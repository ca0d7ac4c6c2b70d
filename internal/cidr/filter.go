package cidr

import "net/netip"

// Filter holds one trie per address family and routes queries by the
// family of the address.
type Filter struct {
	v4 Trie
	v6 Trie
}

// Insert adds p to the trie of its family.
func (f *Filter) Insert(p Prefix) {
	if p.Is4() {
		f.v4.Insert(p)
		return
	}
	f.v6.Insert(p)
}

// Lookup reports whether addr is covered by an inserted prefix of the same
// family. Addresses of a family with no prefixes never match.
func (f *Filter) Lookup(addr netip.Addr) bool {
	if addr.Is4() {
		return f.v4.Lookup(addr)
	}
	return f.v6.Lookup(addr)
}

// Empty reports whether nothing has been inserted.
func (f *Filter) Empty() bool {
	return f.v4.Len() == 0 && f.v6.Len() == 0
}
