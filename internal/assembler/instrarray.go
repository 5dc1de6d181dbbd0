// Completion: 100% - Instruction array complete
package assembler

import "encoding/binary"

// InstrNode is one growable, byte-addressable word buffer with a fixed
// virtual origin address, adapting the teacher's SafeBuffer lifecycle
// discipline (safe_buffer.go) to the data model's "linked list of growable
// byte-addressable word buffers" (spec.md sec.3). Kernel mode starts a new
// node at every ".origin" directive; user mode has exactly one node per
// section.
type InstrNode struct {
	Origin    uint32
	words     []uint32
	committed bool
}

// AppendWord appends a full 32-bit word. Used by the instruction encoder
// and by ".fill".
func (n *InstrNode) AppendWord(w uint32) {
	n.mustNotBeCommitted()
	n.words = append(n.words, w)
}

// AppendHalf packs a 16-bit value into the word addressed by pc, creating a
// new zero-initialized word whenever pc%4==0 (spec.md sec.3: "the latter
// two pack into the currently-last word based on pc % 4, emitting a new
// zero-initialized word whenever pc % 4 == 0").
func (n *InstrNode) AppendHalf(v uint16, pc uint32) {
	n.packSubWord(uint32(v), 0xFFFF, pc)
}

// AppendByte packs an 8-bit value into the word addressed by pc, under the
// same pc%4 rule as AppendHalf.
func (n *InstrNode) AppendByte(v uint8, pc uint32) {
	n.packSubWord(uint32(v), 0xFF, pc)
}

func (n *InstrNode) packSubWord(v, mask, pc uint32) {
	n.mustNotBeCommitted()
	if pc%4 == 0 {
		n.words = append(n.words, 0)
	}
	idx := len(n.words) - 1
	shift := (pc % 4) * 8
	n.words[idx] = (n.words[idx] &^ (mask << shift)) | ((v & mask) << shift)
}

func (n *InstrNode) mustNotBeCommitted() {
	if n.committed {
		panic("InstrNode: append after Commit")
	}
}

// Commit marks the node as finished; the image writer only reads committed
// nodes.
func (n *InstrNode) Commit() { n.committed = true }

// Words returns the node's backing store.
func (n *InstrNode) Words() []uint32 { return n.words }

// Len returns the node's size in bytes.
func (n *InstrNode) Len() int { return len(n.words) * 4 }

// Bytes serializes the node little-endian, one word at a time, per
// spec.md sec.4.G ("all instructions are 32-bit, encoded little-endian at
// emit time").
func (n *InstrNode) Bytes() []byte {
	out := make([]byte, len(n.words)*4)
	for i, w := range n.words {
		binary.LittleEndian.PutUint32(out[i*4:], w)
	}
	return out
}

// InstrArray is the ordered list of kernel-mode InstrNodes, one node per
// ".origin" jump (spec.md sec.4.F, "State machine per file"). User-mode
// section nodes are held in Assembler.sectionNodes, not here.
type InstrArray struct {
	nodes []*InstrNode
}

// NewNode appends and returns a new node with the given origin address.
func (a *InstrArray) NewNode(origin uint32) *InstrNode {
	n := &InstrNode{Origin: origin}
	a.nodes = append(a.nodes, n)
	return n
}

// Nodes returns the array's nodes in append order.
func (a *InstrArray) Nodes() []*InstrNode { return a.nodes }
