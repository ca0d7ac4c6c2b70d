package cidr

import "net/netip"

// nilNode marks an absent child slot.
const nilNode = -1

type node struct {
	children [2]int32
	terminal bool
}

// Trie is a binary trie over address bits for a single address family.
//
// Nodes live in an arena and refer to their children by index. Node 0 is
// the root once anything has been inserted. Lookup succeeds on the first
// terminal node met while descending, so a broad prefix keeps matching
// everything under it no matter what narrower prefixes are added later.
// There is no removal.
type Trie struct {
	nodes []node
}

// Len returns the number of allocated nodes, root included.
func (t *Trie) Len() int { return len(t.nodes) }

func (t *Trie) newNode() int32 {
	t.nodes = append(t.nodes, node{children: [2]int32{nilNode, nilNode}})
	return int32(len(t.nodes) - 1)
}

func (t *Trie) child(n int32, bit uint8) int32 {
	c := t.nodes[n].children[bit]
	if c == nilNode {
		c = t.newNode()
		t.nodes[n].children[bit] = c
	}
	return c
}

// Insert adds p to the trie. The bits of p.Addr are consumed from the most
// significant bit of the first octet.
func (t *Trie) Insert(p Prefix) {
	if len(t.nodes) == 0 {
		t.newNode()
	}

	// A /0 covers the whole family: mark both depth-1 nodes terminal so
	// the root itself never has to be.
	if p.Bits == 0 {
		t.nodes[t.child(0, 0)].terminal = true
		t.nodes[t.child(0, 1)].terminal = true
		return
	}

	octets := p.Addr.AsSlice()
	cur := int32(0)
	for i := 0; i < p.Bits; i++ {
		cur = t.child(cur, bitAt(octets, i))
	}
	t.nodes[cur].terminal = true
}

// Lookup reports whether addr lies inside any inserted prefix.
func (t *Trie) Lookup(addr netip.Addr) bool {
	if len(t.nodes) == 0 {
		return false
	}

	octets := addr.AsSlice()
	cur := int32(0)
	for i := 0; i < len(octets)*8; i++ {
		cur = t.nodes[cur].children[bitAt(octets, i)]
		if cur == nilNode {
			return false
		}
		if t.nodes[cur].terminal {
			return true
		}
	}
	return false
}

func bitAt(octets []byte, i int) uint8 {
	return (octets[i/8] >> (7 - uint(i%8))) & 1
}
