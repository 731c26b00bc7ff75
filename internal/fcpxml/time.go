package fcpxml

import (
	"fmt"
	"math/big"
	"strings"
)

// ParseTime parses an FCPXML rational time value such as "1001/30000s" or
// "10s" into seconds. An empty value is zero.
func ParseTime(s string) (*big.Rat, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return new(big.Rat), nil
	}
	if !strings.HasSuffix(s, "s") {
		return nil, fmt.Errorf("invalid time value %q", s)
	}

	r, ok := new(big.Rat).SetString(strings.TrimSuffix(s, "s"))
	if !ok {
		return nil, fmt.Errorf("invalid time value %q", s)
	}
	return r, nil
}

// TimeAttr parses a time attribute of n. A missing attribute is zero.
func TimeAttr(n *Node, name string) (*big.Rat, error) {
	v, _ := n.Attr(name)
	r, err := ParseTime(v)
	if err != nil {
		return nil, fmt.Errorf("%s attribute of <%s>: %w", name, n.Name, err)
	}
	return r, nil
}

// TimeAttrOrZero is TimeAttr with malformed values treated as zero.
func TimeAttrOrZero(n *Node, name string) *big.Rat {
	r, err := TimeAttr(n, name)
	if err != nil {
		return new(big.Rat)
	}
	return r
}

// TimelineInPoint returns the absolute position of a story element within
// its sequence, accumulating offsets through nested storylines.
func TimelineInPoint(n *Node) *big.Rat {
	p := n.Parent
	if p == nil {
		return new(big.Rat)
	}
	offset := TimeAttrOrZero(n, "offset")

	if p.Type == TypeSequence {
		return offset
	}
	if p.Type == TypeSpine && p.Parent != nil && p.Parent.Type == TypeSequence {
		return offset
	}

	abs := TimelineInPoint(p)
	abs.Add(abs, offset)
	abs.Sub(abs, TimeAttrOrZero(p, "start"))
	return abs
}
