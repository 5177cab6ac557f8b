package fn

// Node is an element of a linked List. Value holds the payload; the other
// fields are the list's internal bookkeeping and should not be mutated
// directly.
type Node[A any] struct {
	next, prev *Node[A]
	list       *List[A]

	// Value is the value stored with this element.
	Value A
}

// Next returns the next list node or nil.
func (n *Node[A]) Next() *Node[A] {
	if p := n.next; n.list != nil && p != &n.list.root {
		return p
	}

	return nil
}

// Prev returns the previous list node or nil.
func (n *Node[A]) Prev() *Node[A] {
	if p := n.prev; n.list != nil && p != &n.list.root {
		return p
	}

	return nil
}

// List is a generic port of container/list.List. It is used throughout the
// payment lifecycle to preserve the reporting order of failures and partial
// successes: appends and removals are O(1), and the accumulated order
// survives exactly as observed, which a slice with mid-sequence deletes
// would not give for free.
type List[A any] struct {
	root Node[A]
	len  int
}

// NewList returns an initialized, empty List.
func NewList[A any]() *List[A] {
	l := new(List[A])
	return l.init()
}

func (l *List[A]) init() *List[A] {
	l.root.next = &l.root
	l.root.prev = &l.root
	l.len = 0

	return l
}

func (l *List[A]) lazyInit() {
	if l.root.next == nil {
		l.init()
	}
}

// Len returns the number of elements in the list.
func (l *List[A]) Len() int {
	return l.len
}

// Front returns the first element of the list, or nil.
func (l *List[A]) Front() *Node[A] {
	if l.len == 0 {
		return nil
	}

	return l.root.next
}

// Back returns the last element of the list, or nil.
func (l *List[A]) Back() *Node[A] {
	if l.len == 0 {
		return nil
	}

	return l.root.prev
}

func (l *List[A]) insert(n, at *Node[A]) *Node[A] {
	n.prev = at
	n.next = at.next
	n.prev.next = n
	n.next.prev = n
	n.list = l
	l.len++

	return n
}

func (l *List[A]) insertValue(v A, at *Node[A]) *Node[A] {
	return l.insert(&Node[A]{Value: v}, at)
}

func (l *List[A]) remove(n *Node[A]) {
	n.prev.next = n.next
	n.next.prev = n.prev
	n.next = nil
	n.prev = nil
	n.list = nil
	l.len--
}

func (l *List[A]) move(n, at *Node[A]) {
	if n == at {
		return
	}

	n.prev.next = n.next
	n.next.prev = n.prev

	n.prev = at
	n.next = at.next
	n.prev.next = n
	n.next.prev = n
}

// Remove removes n from the list, if n is an element of the list.
func (l *List[A]) Remove(n *Node[A]) A {
	if n.list == l {
		l.remove(n)
	}

	return n.Value
}

// PushFront inserts a new element with value v at the front of the list.
func (l *List[A]) PushFront(v A) *Node[A] {
	l.lazyInit()
	return l.insertValue(v, &l.root)
}

// PushBack inserts a new element with value v at the back of the list.
func (l *List[A]) PushBack(v A) *Node[A] {
	l.lazyInit()
	return l.insertValue(v, l.root.prev)
}

// InsertBefore inserts a new element with value v immediately before mark
// and returns the new element.
func (l *List[A]) InsertBefore(v A, mark *Node[A]) *Node[A] {
	if mark.list != l {
		return nil
	}

	return l.insertValue(v, mark.prev)
}

// InsertAfter inserts a new element with value v immediately after mark and
// returns the new element.
func (l *List[A]) InsertAfter(v A, mark *Node[A]) *Node[A] {
	if mark.list != l {
		return nil
	}

	return l.insertValue(v, mark)
}

// MoveToFront moves element n to the front of the list.
func (l *List[A]) MoveToFront(n *Node[A]) {
	if n.list != l || l.root.next == n {
		return
	}

	l.move(n, &l.root)
}

// MoveToBack moves element n to the back of the list.
func (l *List[A]) MoveToBack(n *Node[A]) {
	if n.list != l || l.root.prev == n {
		return
	}

	l.move(n, l.root.prev)
}

// MoveBefore moves element n so that it sits immediately before mark.
func (l *List[A]) MoveBefore(n, mark *Node[A]) {
	if n.list != l || n == mark || mark.list != l {
		return
	}

	l.move(n, mark.prev)
}

// MoveAfter moves element n so that it sits immediately after mark.
func (l *List[A]) MoveAfter(n, mark *Node[A]) {
	if n.list != l || n == mark || mark.list != l {
		return
	}

	l.move(n, mark)
}

// PushBackList appends a copy of another list's elements to the back of l.
func (l *List[A]) PushBackList(other *List[A]) {
	l.lazyInit()
	for i, n := other.Len(), other.Front(); i > 0; i, n = i-1, n.Next() {
		l.insertValue(n.Value, l.root.prev)
	}
}

// PushFrontList inserts a copy of another list's elements at the front of
// l, retaining the original order of other.
func (l *List[A]) PushFrontList(other *List[A]) {
	l.lazyInit()
	for i, n := other.Len(), other.Back(); i > 0; i, n = i-1, n.Prev() {
		l.insertValue(n.Value, &l.root)
	}
}

// ToSlice materializes the list, front to back, into a plain slice. This is
// the boundary used whenever an ordered list needs to cross into an API
// that speaks slices, such as a terminal PaymentSent/PaymentFailed event.
func (l *List[A]) ToSlice() []A {
	out := make([]A, 0, l.Len())
	for n := l.Front(); n != nil; n = n.Next() {
		out = append(out, n.Value)
	}

	return out
}

// ForEach calls f with the value of every node, front to back.
func (l *List[A]) ForEach(f func(A)) {
	for n := l.Front(); n != nil; n = n.Next() {
		f(n.Value)
	}
}
