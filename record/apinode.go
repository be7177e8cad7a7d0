package record

// ApiNode is one node of the assembled API tree. A node is either a
// Container (object-shaped: its Children map holds further nodes) or a
// Leaf (a user-exported value, typically a function). A node can be
// both: Callable holds the node's own callable identity (a promoted
// default export) while Children still holds sibling properties
// attached to it — functions are valid containers.
type ApiNode struct {
	// Children holds this node's named sub-nodes, in the object sense.
	// Nil for a pure leaf.
	Children map[string]*ApiNode

	// Leaf holds a directly-exported value (no further children),
	// e.g. a promoted single named export or a flattened function.
	Leaf any

	// Callable holds the default export that gives this node its own
	// invocable identity, when the node is also a namespace (rules 2,
	// 8, and the multi-callable-default protocol).
	Callable any

	// Proxy is set in lazy mode for a node whose children have not yet
	// been materialized. Nil once materialized (or in eager mode).
	Proxy *LazyProxy
}

// IsLeaf reports whether the node carries no further named children
// (ignoring Callable, which is the node's own identity, not a child).
func (n *ApiNode) IsLeaf() bool {
	return n != nil && len(n.Children) == 0 && n.Proxy == nil
}

// NewContainer returns an empty namespace node ready to receive
// children.
func NewContainer() *ApiNode {
	return &ApiNode{Children: make(map[string]*ApiNode)}
}

// Set attaches child under key, creating the Children map if needed.
func (n *ApiNode) Set(key string, child *ApiNode) {
	if n.Children == nil {
		n.Children = make(map[string]*ApiNode)
	}
	n.Children[key] = child
}

// Get returns the child at key, or nil if absent. It never forces
// materialization — callers working through a possibly-lazy tree go
// through build.Resolve instead.
func (n *ApiNode) Get(key string) *ApiNode {
	if n == nil || n.Children == nil {
		return nil
	}
	return n.Children[key]
}

// Keys returns this node's own child keys in no particular order. For
// a LazyProxy-backed node this is the cheap, non-materializing key
// list; for a materialized node it is simply the map keys.
func (n *ApiNode) Keys() []string {
	if n == nil {
		return nil
	}
	if n.Proxy != nil {
		return n.Proxy.OwnKeys()
	}
	keys := make([]string, 0, len(n.Children))
	for k := range n.Children {
		keys = append(keys, k)
	}
	return keys
}
