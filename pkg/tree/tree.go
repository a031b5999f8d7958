// Package tree stores an n-ary tree as linked records in one growable slice
// of items. Nodes are addressed by record index; handles remember the
// generation of their index so a handle to a removed node reads as broken
// even after the index is reused.
//
// Record layout, relative to the node index i:
//
//	i-2  next sibling index, or -parent index for the last child
//	i-1  node type
//	i    number of children
//	i+1  index of the first child
//	i+2  number of arguments
//	i+3  arguments
package tree

import (
	"errors"
	"fmt"
)

// Item is the uniform cell of the arena, the memory image and the tables.
type Item = int64

var ErrBrokenNode = errors.New("tree: broken node")

const (
	offNext     = -2
	offType     = -1
	offAmount   = 0
	offChildren = 1
	offArgc     = 2
	offArgs     = 3

	rootIndex = 2
)

type Tree struct {
	items []Item
	gens  map[int]uint32
}

// Node is a handle into a Tree. The zero Node is broken.
type Node struct {
	tree  *Tree
	index int
	gen   uint32
}

// New creates a tree holding only a root of the given type.
func New(rootType Item) *Tree {
	return &Tree{
		items: []Item{0, rootType, 0, 0, 0},
		gens:  make(map[int]uint32),
	}
}

func (t *Tree) Root() Node { return t.node(rootIndex) }

// Len returns the number of items in use.
func (t *Tree) Len() int { return len(t.items) }

func (t *Tree) node(index int) Node {
	return Node{tree: t, index: index, gen: t.gens[index]}
}

// Load restores a node saved with Save.
func (t *Tree) Load(index int) Node {
	if index < rootIndex || index+offArgc >= len(t.items) {
		return Node{}
	}
	return t.node(index)
}

// IsBroken reports whether the handle does not designate a live node.
func (n Node) IsBroken() bool {
	return n.tree == nil || n.index < rootIndex || n.index+offArgc >= len(n.tree.items) ||
		n.tree.gens[n.index] != n.gen
}

// Save returns an index that Load turns back into the same node.
func (n Node) Save() int {
	if n.IsBroken() {
		return 0
	}
	return n.index
}

func (n Node) Tree() *Tree { return n.tree }

func (n Node) Type() Item {
	if n.IsBroken() {
		return 0
	}
	return n.tree.items[n.index+offType]
}

func (n Node) SetType(typ Item) error {
	if n.IsBroken() {
		return ErrBrokenNode
	}
	n.tree.items[n.index+offType] = typ
	return nil
}

func (n Node) Amount() int {
	if n.IsBroken() {
		return 0
	}
	return int(n.tree.items[n.index+offAmount])
}

func (n Node) Argc() int {
	if n.IsBroken() {
		return 0
	}
	return int(n.tree.items[n.index+offArgc])
}

// Arg returns argument i, or 0 when it does not exist.
func (n Node) Arg(i int) Item {
	if i < 0 || i >= n.Argc() {
		return 0
	}
	return n.tree.items[n.index+offArgs+i]
}

func (n Node) SetArg(i int, value Item) error {
	if n.IsBroken() {
		return ErrBrokenNode
	}
	if i < 0 || i >= n.Argc() {
		return fmt.Errorf("tree: argument %d out of range for node %d", i, n.index)
	}
	n.tree.items[n.index+offArgs+i] = value
	return nil
}

// AddArg appends an argument. Only the last record of the arena can grow,
// and only while it has no children.
func (n Node) AddArg(value Item) error {
	if n.IsBroken() {
		return ErrBrokenNode
	}
	t := n.tree
	if t.items[n.index+offAmount] != 0 || n.index+offArgs+int(t.items[n.index+offArgc]) != len(t.items) {
		return fmt.Errorf("tree: node %d is closed for new arguments", n.index)
	}
	t.items = append(t.items, value)
	t.items[n.index+offArgc]++
	return nil
}

func (n Node) Child(i int) Node {
	if i < 0 || i >= n.Amount() {
		return Node{}
	}
	idx := int(n.tree.items[n.index+offChildren])
	for ; i > 0; i-- {
		idx = int(n.tree.items[idx+offNext])
	}
	return n.tree.node(idx)
}

func (n Node) Parent() Node {
	if n.IsBroken() || n.index == rootIndex {
		return Node{}
	}
	idx := n.index
	for {
		next := n.tree.items[idx+offNext]
		if next < 0 {
			return n.tree.node(int(-next))
		}
		if next == 0 {
			return Node{}
		}
		idx = int(next)
	}
}

// Next returns the node following n in pre-order, or a broken node at the end.
func (n Node) Next() Node {
	if n.IsBroken() {
		return Node{}
	}
	if n.Amount() > 0 {
		return n.Child(0)
	}
	idx := n.index
	for {
		next := n.tree.items[idx+offNext]
		if next > 0 {
			return n.tree.node(int(next))
		}
		if next == 0 {
			return Node{}
		}
		idx = int(-next)
	}
}

// AddChild appends a new last child with the given type and arguments.
func (n Node) AddChild(typ Item, args ...Item) Node {
	if n.IsBroken() {
		return Node{}
	}
	t := n.tree
	last := n.Child(n.Amount() - 1)

	idx := len(t.items) - offNext
	t.items = append(t.items, Item(-n.index), typ, 0, 0, Item(len(args)))
	t.items = append(t.items, args...)

	if last.IsBroken() {
		t.items[n.index+offChildren] = Item(idx)
	} else {
		t.items[last.index+offNext] = Item(idx)
	}
	t.items[n.index+offAmount]++
	return t.node(idx)
}

// ref returns the slot that links to n: the parent's first-child slot or the
// previous sibling's next slot.
func (n Node) ref() int {
	parent := n.Parent()
	slot := parent.index + offChildren
	for int(n.tree.items[slot]) != n.index {
		slot = int(n.tree.items[slot]) + offNext
	}
	return slot
}

// Insert creates a node with argc zeroed arguments in the position of n and
// makes n its only child.
func (n Node) Insert(typ Item, argc int) Node {
	if n.IsBroken() || n.index == rootIndex {
		return Node{}
	}
	t := n.tree
	slot := n.ref()

	idx := len(t.items) - offNext
	t.items = append(t.items, t.items[n.index+offNext], typ, 1, Item(n.index), Item(argc))
	t.items = append(t.items, make([]Item, argc)...)

	t.items[slot] = Item(idx)
	t.items[n.index+offNext] = Item(-idx)
	return t.node(idx)
}

func (n Node) isAncestorOf(m Node) bool {
	for p := m.Parent(); !p.IsBroken(); p = p.Parent() {
		if p.index == n.index {
			return true
		}
	}
	return false
}

// Swap exchanges the positions of two nodes together with their subtrees.
func Swap(a, b Node) error {
	if a.IsBroken() || b.IsBroken() {
		return ErrBrokenNode
	}
	if a.tree != b.tree {
		return errors.New("tree: cannot swap nodes of different trees")
	}
	if a.index == b.index {
		return nil
	}
	if a.index == rootIndex || b.index == rootIndex || a.isAncestorOf(b) || b.isAncestorOf(a) {
		return fmt.Errorf("tree: cannot swap nested nodes %d and %d", a.index, b.index)
	}
	t := a.tree
	ra, rb := a.ref(), b.ref()
	t.items[ra], t.items[rb] = t.items[rb], t.items[ra]
	t.items[a.index+offNext], t.items[b.index+offNext] = t.items[b.index+offNext], t.items[a.index+offNext]
	return nil
}

// Remove unlinks n from its parent. The record is reclaimed when it is the
// tail of the arena; in any case the handle and its copies become broken.
func (n Node) Remove() error {
	if n.IsBroken() {
		return ErrBrokenNode
	}
	if n.index == rootIndex {
		return errors.New("tree: cannot remove the root")
	}
	t := n.tree
	parent := n.Parent()
	slot := n.ref()
	t.items[slot] = t.items[n.index+offNext]
	t.items[parent.index+offAmount]--

	if t.items[n.index+offAmount] == 0 && n.index+offArgs+int(t.items[n.index+offArgc]) == len(t.items) {
		t.items = t.items[:n.index+offNext]
	}
	t.gens[n.index]++
	return nil
}

// Adopt moves child, with its subtree, to the end of parent's children. The
// move is a swap with a fresh placeholder followed by removing it.
func Adopt(parent, child Node) error {
	placeholder := parent.AddChild(0)
	if placeholder.IsBroken() {
		return ErrBrokenNode
	}
	if err := Swap(placeholder, child); err != nil {
		placeholder.Remove()
		return err
	}
	return placeholder.Remove()
}

// Copy appends a deep copy of n as the last child of dst. dst must not lie
// inside n.
func (n Node) Copy(dst Node) Node {
	if n.IsBroken() {
		return Node{}
	}
	args := make([]Item, n.Argc())
	for i := range args {
		args[i] = n.Arg(i)
	}
	c := dst.AddChild(n.Type(), args...)
	amount := n.Amount()
	for i := 0; i < amount; i++ {
		n.Child(i).Copy(c)
	}
	return c
}

// IsCorrect walks the whole tree and checks that every link stays inside the
// arena and every child points back to its parent.
func (t *Tree) IsCorrect() bool {
	return t.isCorrect(rootIndex)
}

func (t *Tree) isCorrect(index int) bool {
	if index < rootIndex || index+offArgc >= len(t.items) {
		return false
	}
	amount := int(t.items[index+offAmount])
	if amount == 0 {
		return true
	}
	child := int(t.items[index+offChildren])
	for i := 0; i < amount; i++ {
		if !t.isCorrect(child) {
			return false
		}
		next := int(t.items[child+offNext])
		if i == amount-1 {
			return next == -index
		}
		child = next
	}
	return true
}
