package instance

import (
	"sort"

	"github.com/fxamacker/cbor/v2"

	"github.com/aledsdavies/apitree/record"
)

// DescribeNode is the introspection snapshot Describe returns: a plain
// tree mirroring the ApiNode shape but safe to marshal (no funcs, no
// unresolved proxies once Describe has walked it).
type DescribeNode struct {
	Callable bool                     `json:"callable,omitempty" cbor:"callable,omitempty"`
	Lazy     bool                     `json:"lazy,omitempty" cbor:"lazy,omitempty"`
	Leaf     bool                     `json:"leaf,omitempty" cbor:"leaf,omitempty"`
	Children map[string]*DescribeNode `json:"children,omitempty" cbor:"children,omitempty"`
}

// Describe walks the tree and returns a DescribeNode snapshot. showAll
// forces materialization of every LazyProxy along the way; otherwise a
// still-lazy subtree is reported via its cheap OwnKeys scan with
// Lazy=true and no further children resolved.
//
// visited guards the cyclic case — describe(true) in lazy mode must
// resolve each slot at most once even when the graph is cyclic — by
// tracking node identities already rendered anywhere in the walk: a
// node reached a second time is rendered as an empty DescribeNode.
func (i *Instance) Describe(showAll bool) *DescribeNode {
	i.mu.RLock()
	root := i.root
	i.mu.RUnlock()
	return describeNode(root, showAll, map[*record.ApiNode]bool{})
}

// DescribeBinary encodes Describe's snapshot as canonical CBOR, for
// callers that want a stable binary fingerprint of the current api
// shape rather than a Go value.
func (i *Instance) DescribeBinary(showAll bool) ([]byte, error) {
	encMode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, err
	}
	return encMode.Marshal(i.Describe(showAll))
}

func describeNode(node *record.ApiNode, showAll bool, visited map[*record.ApiNode]bool) *DescribeNode {
	if node == nil {
		return nil
	}
	if visited[node] {
		return &DescribeNode{}
	}
	visited[node] = true

	out := &DescribeNode{
		Callable: node.Callable != nil,
		Leaf:     node.Leaf != nil,
	}

	if node.Proxy != nil {
		if !showAll {
			out.Lazy = true
			keys := node.Proxy.OwnKeys()
			sort.Strings(keys)
			if len(keys) > 0 {
				out.Children = make(map[string]*DescribeNode, len(keys))
				for _, k := range keys {
					out.Children[k] = &DescribeNode{Lazy: true}
				}
			}
			return out
		}
		resolved, err := node.Proxy.Materialize()
		if err != nil {
			return &DescribeNode{Lazy: true}
		}
		node = resolved
		out.Callable = node.Callable != nil
		out.Leaf = node.Leaf != nil
	}

	if len(node.Children) > 0 {
		out.Children = make(map[string]*DescribeNode, len(node.Children))
		for k, child := range node.Children {
			out.Children[k] = describeNode(child, showAll, visited)
		}
	}
	return out
}
