package pageops

import (
	"github.com/lvillar/pdfmerge"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// outlineNode is one outline item while the tree is assembled.
type outlineNode struct {
	dict types.Dict
	ref  types.IndirectRef
	kids []*outlineNode
}

// writeOutline attaches entries to ctx as the document outline. Levels
// are repaired first, so each entry nests under the closest preceding
// entry one level up. All items are written open.
func writeOutline(ctx *model.Context, entries []pdfmerge.OutlineEntry) error {
	if len(entries) == 0 {
		return nil
	}
	catalog, err := ctx.Catalog()
	if err != nil {
		return err
	}

	outlines := types.Dict{"Type": types.Name("Outlines")}
	outlinesRef, err := ctx.IndRefForNewObject(outlines)
	if err != nil {
		return err
	}
	root := &outlineNode{dict: outlines, ref: *outlinesRef}

	// open[i] is the last node written at level i
	open := []*outlineNode{root}
	anchor := 1
	for _, e := range RepairLevels(entries) {
		d, err := outlineItem(ctx, e, &anchor)
		if err != nil {
			return err
		}
		ref, err := ctx.IndRefForNewObject(d)
		if err != nil {
			return err
		}
		node := &outlineNode{dict: d, ref: *ref}
		open = open[:e.Level]
		parent := open[e.Level-1]
		parent.kids = append(parent.kids, node)
		open = append(open, node)
	}

	linkOutline(root)
	catalog["Outlines"] = *outlinesRef
	return nil
}

// outlineItem builds the dictionary of one item without its tree links.
// anchor is the page of the last entry that had one.
func outlineItem(ctx *model.Context, e pdfmerge.OutlineEntry, anchor *int) (types.Dict, error) {
	title, err := types.EscapedUTF16String(e.Title)
	if err != nil {
		return nil, err
	}
	d := types.Dict{"Title": types.StringLiteral(*title)}

	switch t := e.Target.(type) {
	case pdfmerge.Goto:
		*anchor = clamp(t.Page, 1, ctx.PageCount)
	case pdfmerge.Other:
		if t.Action == "URI" && t.URI != "" {
			uri, err := types.Escape(t.URI)
			if err != nil {
				return nil, err
			}
			d["A"] = types.Dict{"S": types.Name("URI"), "URI": types.StringLiteral(*uri)}
			return d, nil
		}
	case pdfmerge.Named:
		// Written like an Other entry without URI
	}

	pageRef, err := ctx.PageDictIndRef(*anchor)
	if err != nil {
		return nil, err
	}
	d["Dest"] = types.Array{*pageRef, types.Name("Fit")}
	return d, nil
}

// linkOutline sets the Parent, sibling and child references below n and
// returns the number of items under it.
func linkOutline(n *outlineNode) int {
	if len(n.kids) == 0 {
		return 0
	}
	count := 0
	for i, kid := range n.kids {
		kid.dict["Parent"] = n.ref
		if i > 0 {
			kid.dict["Prev"] = n.kids[i-1].ref
		}
		if i < len(n.kids)-1 {
			kid.dict["Next"] = n.kids[i+1].ref
		}
		count += 1 + linkOutline(kid)
	}
	n.dict["First"] = n.kids[0].ref
	n.dict["Last"] = n.kids[len(n.kids)-1].ref
	n.dict["Count"] = types.Integer(count)
	return count
}
