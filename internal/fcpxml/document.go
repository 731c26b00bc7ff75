package fcpxml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// BundleInfoFile is the document inside an .fcpxmld bundle directory.
const BundleInfoFile = "Info.fcpxml"

var ErrNotFCPXML = errors.New("not an fcpxml document")

// Document is a loaded project description.
type Document struct {
	Root      *Node
	Path      string
	resources map[string]*Node
}

// Load reads an .fcpxml file or an .fcpxmld bundle.
func Load(path string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %q: %w", path, err)
	}

	file := path
	if info.IsDir() {
		file = filepath.Join(path, BundleInfoFile)
	}

	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open %q: %w", file, err)
	}
	defer f.Close()

	doc, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %q: %w", file, err)
	}
	doc.Path = path
	return doc, nil
}

// Parse builds a document from raw XML.
func Parse(r io.Reader) (*Document, error) {
	dec := xml.NewDecoder(r)

	var root, cur *Node
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := NewNode(t.Name.Local)
			for _, a := range t.Attr {
				n.Attrs = append(n.Attrs, Attr{Name: a.Name.Local, Value: a.Value})
			}
			if cur == nil {
				if root != nil {
					return nil, fmt.Errorf("%w: multiple root elements", ErrNotFCPXML)
				}
				root = n
			} else {
				cur.Append(n)
			}
			cur = n
		case xml.EndElement:
			if cur != nil {
				cur = cur.Parent
			}
		}
	}

	if root == nil || root.Type != TypeRoot {
		return nil, ErrNotFCPXML
	}
	return NewDocument(root), nil
}

// NewDocument wraps an already built tree and indexes its resources.
func NewDocument(root *Node) *Document {
	d := &Document{Root: root, resources: make(map[string]*Node)}
	for _, res := range FindDescendants(root, "resources") {
		for _, c := range res.Children {
			if id, ok := c.Attr("id"); ok {
				d.resources[id] = c
			}
		}
	}
	return d
}

// Version returns the fcpxml version attribute.
func (d *Document) Version() string {
	return d.Root.AttrOr("version", "")
}

// Resource returns the resource element with the given id.
func (d *Document) Resource(id string) (*Node, bool) {
	n, ok := d.resources[id]
	return n, ok
}

// Projects returns every project element in document order.
func (d *Document) Projects() []*Node {
	return FindDescendants(d.Root, "", TypeProject)
}

// MediaSource returns the media URL referenced by a clip's resource, from
// a media-rep child or the legacy src attribute.
func (d *Document) MediaSource(clip *Node) (string, bool) {
	ref, ok := clip.Attr("ref")
	if !ok {
		return "", false
	}
	res, ok := d.Resource(ref)
	if !ok {
		return "", false
	}
	if rep := res.Child("media-rep"); rep != nil {
		if src, ok := rep.Attr("src"); ok && src != "" {
			return src, true
		}
	}
	if src, ok := res.Attr("src"); ok && src != "" {
		return src, true
	}
	return "", false
}

// IsBundle reports whether path names an .fcpxmld bundle.
func IsBundle(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".fcpxmld")
}
