package ingest

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/andresuchdata/salescast/backend-go/internal/dataset"
)

type xmlNode struct {
	name     string
	attrs    []xml.Attr
	children []*xmlNode
	text     strings.Builder
}

// ParseXML extracts a table from <row> elements, else <item> elements, else the root's children.
// Columns come from the first row's child tags, or its attributes when it has no children.
func ParseXML(r io.Reader) (dataset.Table, error) {
	root, err := readXMLTree(r)
	if err != nil {
		return dataset.Table{}, fmt.Errorf("error parsing XML: %w", err)
	}

	rows := findAll(root, "row")
	if len(rows) == 0 {
		rows = findAll(root, "item")
	}
	if len(rows) == 0 {
		rows = root.children
	}
	if len(rows) == 0 {
		return dataset.Table{}, errors.New("could not identify row elements in XML")
	}

	var t dataset.Table
	first := rows[0]
	if len(first.children) > 0 {
		for _, c := range first.children {
			t.Columns = append(t.Columns, c.name)
		}
		for _, row := range rows {
			values := make([]string, len(t.Columns))
			for i, col := range t.Columns {
				if child := row.child(col); child != nil {
					values[i] = strings.TrimSpace(child.text.String())
				}
			}
			t.Rows = append(t.Rows, values)
		}
	} else {
		for _, a := range first.attrs {
			t.Columns = append(t.Columns, a.Name.Local)
		}
		for _, row := range rows {
			values := make([]string, len(t.Columns))
			for i, col := range t.Columns {
				values[i] = row.attr(col)
			}
			t.Rows = append(t.Rows, values)
		}
	}

	if len(t.Columns) == 0 || len(t.Rows) == 0 {
		return dataset.Table{}, errors.New("could not extract meaningful data from XML")
	}
	return t, nil
}

func readXMLTree(r io.Reader) (*xmlNode, error) {
	dec := xml.NewDecoder(r)
	var root *xmlNode
	var stack []*xmlNode

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch el := tok.(type) {
		case xml.StartElement:
			n := &xmlNode{name: el.Name.Local, attrs: el.Attr}
			if len(stack) == 0 {
				if root != nil {
					return nil, errors.New("multiple root elements")
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(el)
			}
		}
	}

	if root == nil {
		return nil, errors.New("empty document")
	}
	return root, nil
}

// findAll returns descendants named name in document order.
func findAll(n *xmlNode, name string) []*xmlNode {
	var out []*xmlNode
	for _, c := range n.children {
		if c.name == name {
			out = append(out, c)
		}
		out = append(out, findAll(c, name)...)
	}
	return out
}

func (n *xmlNode) child(name string) *xmlNode {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

func (n *xmlNode) attr(name string) string {
	for _, a := range n.attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}
