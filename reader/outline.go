package reader

import (
	"fmt"
)

const (
	maxOutlineDepth = 64
	maxDestLookups  = 8   // indirections followed while resolving one destination
	maxNameTreeKids = 256 // depth bound for name tree walks
)

// OutlineItem is one bookmark from the document outline.
type OutlineItem struct {
	Level int // 1 for top-level items
	Title string

	// Action is the target type: "GoTo" for page destinations (including
	// resolved named destinations), "Named" for named actions, the /S value
	// of any other action, or "" when the item has no target.
	Action string
	Page   int    // 1-based target page for "GoTo"; 0 when it could not be resolved
	Name   string // named action (/N) for "Named", destination name for "GoTo"
	URI    string // target of "URI" actions
}

// Outline returns the document outline flattened in reading order.
// A document without an outline yields an empty slice.
func (d *Document) Outline() ([]OutlineItem, error) {
	catalog, err := d.Catalog()
	if err != nil {
		return nil, err
	}
	root, err := d.resolveIfRef(catalog["Outlines"])
	if err != nil {
		return nil, fmt.Errorf("reader: resolving /Outlines: %w", err)
	}
	rootDict, ok := root.(Dict)
	if !ok {
		return []OutlineItem{}, nil
	}

	items := []OutlineItem{}
	seen := make(map[Reference]bool)
	if err := d.walkOutline(rootDict["First"], 1, seen, &items); err != nil {
		return items, err
	}
	return items, nil
}

// walkOutline appends the sibling chain starting at first and, depth first,
// the children of every sibling.
func (d *Document) walkOutline(first Object, level int, seen map[Reference]bool, items *[]OutlineItem) error {
	if level > maxOutlineDepth {
		return fmt.Errorf("reader: outline deeper than %d levels", maxOutlineDepth)
	}

	next := first
	for next != nil {
		ref, ok := next.(Reference)
		if !ok {
			return fmt.Errorf("reader: outline item is not an indirect object")
		}
		if seen[ref] {
			return fmt.Errorf("reader: outline loop at %s", ref)
		}
		seen[ref] = true

		obj, err := d.resolve(ref)
		if err != nil {
			return fmt.Errorf("reader: outline item %s: %w", ref, err)
		}
		node, ok := obj.(Dict)
		if !ok {
			return fmt.Errorf("reader: outline item %s is not a dictionary", ref)
		}

		item := OutlineItem{Level: level}
		if title, err := d.resolveIfRef(node["Title"]); err == nil {
			if s, ok := title.(String); ok {
				item.Title = s.Text()
			}
		}
		d.outlineTarget(node, &item)
		*items = append(*items, item)

		if child, ok := node["First"]; ok {
			if err := d.walkOutline(child, level+1, seen, items); err != nil {
				return err
			}
		}
		next = node["Next"]
	}
	return nil
}

// outlineTarget fills the target fields of item from /Dest or /A.
func (d *Document) outlineTarget(node Dict, item *OutlineItem) {
	if dest, ok := node["Dest"]; ok {
		item.Action = "GoTo"
		item.Page, item.Name = d.destinationPage(dest, 0)
		return
	}

	actionObj, err := d.resolveIfRef(node["A"])
	if err != nil {
		return
	}
	action, ok := actionObj.(Dict)
	if !ok {
		return
	}

	item.Action = string(action.GetName("S"))
	switch item.Action {
	case "GoTo":
		item.Page, item.Name = d.destinationPage(action["D"], 0)
	case "Named":
		item.Name = string(action.GetName("N"))
	case "URI":
		if uri, err := d.resolveIfRef(action["URI"]); err == nil {
			if s, ok := uri.(String); ok {
				item.URI = s.Text()
			}
		}
	}
}

// destinationPage resolves an explicit or named destination to a 1-based
// page number. It also returns the destination name when one was used.
func (d *Document) destinationPage(dest Object, hops int) (int, string) {
	if hops > maxDestLookups {
		return 0, ""
	}
	obj, err := d.resolveIfRef(dest)
	if err != nil {
		return 0, ""
	}

	switch v := obj.(type) {
	case Array:
		if len(v) == 0 {
			return 0, ""
		}
		switch p := v[0].(type) {
		case Reference:
			n, _ := d.pageForRef(p)
			return n, ""
		case Integer:
			// Page index, used by remote destinations and some writers
			if int(p) >= 0 && int(p) < len(d.pages) {
				return int(p) + 1, ""
			}
		}
		return 0, ""
	case Dict:
		// Destination dictionaries wrap the array in /D
		return d.destinationPage(v["D"], hops+1)
	case Name:
		target := d.lookupDest(string(v))
		page, _ := d.destinationPage(target, hops+1)
		return page, string(v)
	case String:
		name := string(v.Value)
		target := d.lookupDest(name)
		page, _ := d.destinationPage(target, hops+1)
		return page, name
	}
	return 0, ""
}

// lookupDest finds a named destination in the catalog /Dests dictionary
// (PDF 1.1) or the /Names /Dests name tree (PDF 1.2+).
func (d *Document) lookupDest(name string) Object {
	catalog, err := d.Catalog()
	if err != nil {
		return nil
	}

	if destsObj, err := d.resolveIfRef(catalog["Dests"]); err == nil {
		if dests, ok := destsObj.(Dict); ok {
			if v, ok := dests[Name(name)]; ok {
				return v
			}
		}
	}

	namesObj, err := d.resolveIfRef(catalog["Names"])
	if err != nil {
		return nil
	}
	names, ok := namesObj.(Dict)
	if !ok {
		return nil
	}
	tree, err := d.resolveIfRef(names["Dests"])
	if err != nil {
		return nil
	}
	treeDict, ok := tree.(Dict)
	if !ok {
		return nil
	}
	return d.nameTreeLookup(treeDict, name, 0)
}

// nameTreeLookup searches a name tree node and its kids for key.
func (d *Document) nameTreeLookup(node Dict, key string, depth int) Object {
	if depth > maxNameTreeKids {
		return nil
	}

	if namesObj, err := d.resolveIfRef(node["Names"]); err == nil {
		if pairs, ok := namesObj.(Array); ok {
			for i := 0; i+1 < len(pairs); i += 2 {
				k, err := d.resolveIfRef(pairs[i])
				if err != nil {
					continue
				}
				if s, ok := k.(String); ok && string(s.Value) == key {
					return pairs[i+1]
				}
			}
		}
	}

	kidsObj, err := d.resolveIfRef(node["Kids"])
	if err != nil {
		return nil
	}
	kids, _ := kidsObj.(Array)
	for _, kid := range kids {
		kidObj, err := d.resolveIfRef(kid)
		if err != nil {
			continue
		}
		kidDict, ok := kidObj.(Dict)
		if !ok || !inLimits(kidDict, key) {
			continue
		}
		if v := d.nameTreeLookup(kidDict, key, depth+1); v != nil {
			return v
		}
	}
	return nil
}

// inLimits reports whether key may be stored below a name tree node.
// Nodes without /Limits are always searched.
func inLimits(node Dict, key string) bool {
	limits := node.GetArray("Limits")
	if len(limits) != 2 {
		return true
	}
	lo, ok1 := limits[0].(String)
	hi, ok2 := limits[1].(String)
	if !ok1 || !ok2 {
		return true
	}
	return key >= string(lo.Value) && key <= string(hi.Value)
}
