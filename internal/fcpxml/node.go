// Package fcpxml loads Final Cut Pro XML project documents into a tagged
// node tree and provides upward/downward search over it.
package fcpxml

// NodeType classifies an element by its tag name.
type NodeType int

const (
	TypeUnknown NodeType = iota
	TypeRoot
	TypeResources
	TypeFormat
	TypeAsset
	TypeMedia
	TypeMediaRep
	TypeEffect
	TypeLibrary
	TypeEvent
	TypeProject
	TypeSequence
	TypeSpine
	TypeAssetClip
	TypeClip
	TypeMCClip
	TypeRefClip
	TypeSyncClip
	TypeVideo
	TypeAudio
	TypeTitle
	TypeGap
	TypeCaption
	TypeAudition
	TypeTransition
	TypeMarker
	TypeChapterMarker
	TypeAudioChannelSource
	TypeKeyword
)

var typesByTag = map[string]NodeType{
	"fcpxml":               TypeRoot,
	"resources":            TypeResources,
	"format":               TypeFormat,
	"asset":                TypeAsset,
	"media":                TypeMedia,
	"media-rep":            TypeMediaRep,
	"effect":               TypeEffect,
	"library":              TypeLibrary,
	"event":                TypeEvent,
	"project":              TypeProject,
	"sequence":             TypeSequence,
	"spine":                TypeSpine,
	"asset-clip":           TypeAssetClip,
	"clip":                 TypeClip,
	"mc-clip":              TypeMCClip,
	"ref-clip":             TypeRefClip,
	"sync-clip":            TypeSyncClip,
	"video":                TypeVideo,
	"audio":                TypeAudio,
	"title":                TypeTitle,
	"gap":                  TypeGap,
	"caption":              TypeCaption,
	"audition":             TypeAudition,
	"transition":           TypeTransition,
	"marker":               TypeMarker,
	"chapter-marker":       TypeChapterMarker,
	"audio-channel-source": TypeAudioChannelSource,
	"keyword":              TypeKeyword,
}

// TypeForTag returns the node type for an element tag.
func TypeForTag(tag string) NodeType {
	return typesByTag[tag]
}

// IsClip reports whether the type is a timeline story element that can
// carry markers.
func (t NodeType) IsClip() bool {
	switch t {
	case TypeAssetClip, TypeClip, TypeMCClip, TypeRefClip, TypeSyncClip,
		TypeVideo, TypeAudio, TypeTitle, TypeGap, TypeCaption:
		return true
	}
	return false
}

// IsMarker reports whether the type belongs to the marker family.
func (t NodeType) IsMarker() bool {
	return t == TypeMarker || t == TypeChapterMarker
}

// Attr is a single element attribute. Order follows the source document.
type Attr struct {
	Name  string
	Value string
}

// Node is one element of the document tree.
type Node struct {
	Name     string
	Type     NodeType
	Attrs    []Attr
	Children []*Node
	Parent   *Node
}

// NewNode creates a detached node for the given tag.
func NewNode(name string, attrs ...Attr) *Node {
	return &Node{Name: name, Type: TypeForTag(name), Attrs: attrs}
}

// Append attaches children and returns n for chaining.
func (n *Node) Append(children ...*Node) *Node {
	for _, c := range children {
		c.Parent = n
		n.Children = append(n.Children, c)
	}
	return n
}

// Attr returns the attribute value and whether it is present.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// AttrOr returns the attribute value or def when absent.
func (n *Node) AttrOr(name, def string) string {
	if v, ok := n.Attr(name); ok {
		return v
	}
	return def
}

// Child returns the first direct child with the given tag.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// FindAncestor walks parent links and returns the nearest ancestor that
// satisfies pred.
func FindAncestor(n *Node, pred func(*Node) bool) (*Node, bool) {
	if n == nil {
		return nil, false
	}
	for p := n.Parent; p != nil; p = p.Parent {
		if pred(p) {
			return p, true
		}
	}
	return nil, false
}

// OfType is a FindAncestor predicate matching any of types.
func OfType(types ...NodeType) func(*Node) bool {
	return func(n *Node) bool {
		for _, t := range types {
			if n.Type == t {
				return true
			}
		}
		return false
	}
}

// FindDescendants collects descendants of n in document order. An empty
// name matches any tag; an empty type list accepts every type.
func FindDescendants(n *Node, name string, types ...NodeType) []*Node {
	if n == nil {
		return nil
	}

	var out []*Node
	accept := OfType(types...)

	stack := make([]*Node, 0, len(n.Children))
	for i := len(n.Children) - 1; i >= 0; i-- {
		stack = append(stack, n.Children[i])
	}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if (name == "" || cur.Name == name) && (len(types) == 0 || accept(cur)) {
			out = append(out, cur)
		}
		for i := len(cur.Children) - 1; i >= 0; i-- {
			stack = append(stack, cur.Children[i])
		}
	}
	return out
}
