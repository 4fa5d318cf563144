package pageops

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lvillar/pdfmerge"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// errDangling marks a destination whose page is not part of the output.
var errDangling = errors.New("destination page not in output")

type pageKey struct {
	content *pdfmerge.Content
	number  int
}

// annotSource is a source as pdfcpu sees it.
type annotSource struct {
	ctx   *model.Context
	pages map[int]int // page object number -> page number
}

// annotCopier copies the annotations of source pages into dst, whose
// pages are the imported pages in output order.
type annotCopier struct {
	dst       *model.Context
	pages     []pdfmerge.Page
	pageRefs  []types.IndirectRef
	placed    map[pageKey]int // source page -> first output page showing it
	sources   map[*pdfmerge.Content]*annotSource
	keepLinks bool
	log       *slog.Logger
}

// copyAnnotations adds the annotations of every source page to the
// matching page of dst. Form widgets are left out since they belong to
// the source's form. Without keepLinks Link annotations are left out
// as well.
func copyAnnotations(dst *model.Context, pages []pdfmerge.Page, keepLinks bool, log *slog.Logger) error {
	c := &annotCopier{
		dst:       dst,
		pages:     pages,
		placed:    make(map[pageKey]int),
		sources:   make(map[*pdfmerge.Content]*annotSource),
		keepLinks: keepLinks,
		log:       log,
	}
	for i, p := range pages {
		ref, err := dst.PageDictIndRef(i + 1)
		if err != nil {
			return err
		}
		c.pageRefs = append(c.pageRefs, *ref)
		k := pageKey{p.Content, p.Number}
		if _, ok := c.placed[k]; !ok {
			c.placed[k] = i + 1
		}
	}

	for i, p := range pages {
		if err := c.copyPage(i+1, p); err != nil {
			return fmt.Errorf("page %d: %w", i+1, err)
		}
	}
	return nil
}

// source returns the parsed form of content, or nil when pdfcpu cannot
// read it. Such a source keeps its pages but loses its annotations.
func (c *annotCopier) source(content *pdfmerge.Content) *annotSource {
	if src, ok := c.sources[content]; ok {
		return src
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	ctx, err := api.ReadContext(bytes.NewReader(content.Data), conf)
	if err == nil {
		err = ctx.EnsurePageCount()
	}
	if err != nil {
		c.log.Warn("annotations not copied", "source", content.Name, "error", err)
		c.sources[content] = nil
		return nil
	}

	src := &annotSource{ctx: ctx, pages: make(map[int]int, ctx.PageCount)}
	for i := 1; i <= ctx.PageCount; i++ {
		if ref, err := ctx.PageDictIndRef(i); err == nil && ref != nil {
			src.pages[ref.ObjectNumber.Value()] = i
		}
	}
	c.sources[content] = src
	return src
}

// placementOf returns where page number of src lands on output page
// outNr.
func (c *annotCopier) placementOf(src *annotSource, number, outNr int) (placement, bool) {
	_, _, attrs, err := src.ctx.PageDict(number, false)
	if err != nil || attrs == nil || attrs.MediaBox == nil {
		return placement{}, false
	}
	return newPlacement(*attrs.MediaBox, attrs.Rotate, c.pages[outNr-1].Rotation), true
}

// annotPlan is the decision taken for one source annotation.
type annotPlan struct {
	dict     types.Dict
	objNr    int // 0 for a direct object
	ref      types.IndirectRef
	internal bool        // leads to a page of its own document
	dest     types.Array // remapped destination, nil when dropped
}

func (c *annotCopier) copyPage(outNr int, p pdfmerge.Page) error {
	src := c.source(p.Content)
	if src == nil {
		return nil
	}
	pd, _, _, err := src.ctx.PageDict(p.Number, false)
	if err != nil || pd == nil {
		c.log.Warn("annotations not copied", "source", p.Content.Name, "page", p.Number, "error", err)
		return nil
	}
	o, found := pd.Find("Annots")
	if !found {
		return nil
	}
	annots, err := src.ctx.DereferenceArray(o)
	if err != nil {
		c.log.Warn("annotations not copied", "source", p.Content.Name, "page", p.Number, "error", err)
		return nil
	}
	if len(annots) == 0 {
		return nil
	}
	at, ok := c.placementOf(src, p.Number, outNr)
	if !ok {
		return nil
	}

	pc := &pageCopy{
		annotCopier: c,
		src:         src,
		content:     p.Content,
		ref:         c.pageRefs[outNr-1],
		at:          at,
		memo:        make(map[int]types.Object),
		turned:      make(map[int]bool),
	}

	// Decide first, so references between annotations resolve to copies
	// or to nothing
	var plans []*annotPlan
	for _, o := range annots {
		plan, keep := pc.plan(o)
		if ref, isRef := o.(types.IndirectRef); isRef && !keep {
			pc.memo[ref.ObjectNumber.Value()] = nil
		}
		if !keep {
			continue
		}
		if plan.objNr > 0 {
			ref, err := c.dst.IndRefForNewObject(types.Dict{})
			if err != nil {
				return err
			}
			plan.ref = *ref
			pc.memo[plan.objNr] = *ref
		}
		plans = append(plans, plan)
	}

	var out types.Array
	for _, plan := range plans {
		d, err := pc.annotation(plan)
		if err != nil {
			return err
		}
		if plan.objNr == 0 {
			ref, err := c.dst.IndRefForNewObject(d)
			if err != nil {
				return err
			}
			plan.ref = *ref
		} else {
			c.dst.Table[plan.ref.ObjectNumber.Value()].Object = d
		}
		out = append(out, plan.ref)
	}
	if len(out) == 0 {
		return nil
	}

	dstPage, _, _, err := c.dst.PageDict(outNr, false)
	if err != nil {
		return err
	}
	if existing, found := dstPage.Find("Annots"); found {
		if arr, err := c.dst.DereferenceArray(existing); err == nil {
			out = append(arr, out...)
		}
	}
	dstPage["Annots"] = out
	return nil
}

// pageCopy copies the annotations of one source page onto one output
// page. Objects are copied once per output page.
type pageCopy struct {
	*annotCopier
	src     *annotSource
	content *pdfmerge.Content
	ref     types.IndirectRef // output page
	at      placement
	memo    map[int]types.Object // source object number -> copy, nil when left out
	turned  map[int]bool         // appearance streams already turned
}

func (pc *pageCopy) plan(o types.Object) (*annotPlan, bool) {
	d, err := pc.src.ctx.DereferenceDict(o)
	if err != nil || d == nil {
		return nil, false
	}
	plan := &annotPlan{dict: d}
	if ref, ok := o.(types.IndirectRef); ok {
		plan.objNr = ref.ObjectNumber.Value()
	}

	subtype := ""
	if s := d.NameEntry("Subtype"); s != nil {
		subtype = *s
	}
	switch {
	case subtype == "Widget":
		return nil, false
	case subtype == "Link" && !pc.keepLinks:
		return nil, false
	}

	dest, internal := pc.internalDest(d)
	if !internal {
		return plan, true
	}
	plan.internal = true
	if !pc.keepLinks {
		return plan, true
	}
	plan.dest, err = pc.remapDest(dest)
	if err != nil && subtype == "Link" {
		return nil, false
	}
	return plan, true
}

// internalDest returns the destination of an annotation that leads to a
// page of its own document, given as /Dest or as a GoTo action.
func (pc *pageCopy) internalDest(d types.Dict) (types.Object, bool) {
	if o, ok := d.Find("Dest"); ok {
		return o, true
	}
	o, ok := d.Find("A")
	if !ok {
		return nil, false
	}
	a, err := pc.src.ctx.DereferenceDict(o)
	if err != nil || a == nil {
		return nil, false
	}
	if s := a.NameEntry("S"); s != nil && *s == "GoTo" {
		return a["D"], true
	}
	return nil, false
}

// remapDest rewrites a destination to the output page showing its target.
func (pc *pageCopy) remapDest(o types.Object) (types.Array, error) {
	arr, err := pc.src.resolveDest(o, true)
	if err != nil {
		return nil, err
	}
	if len(arr) == 0 {
		return nil, errDangling
	}
	ref, ok := arr[0].(types.IndirectRef)
	if !ok {
		return nil, errDangling
	}
	number, ok := pc.src.pages[ref.ObjectNumber.Value()]
	if !ok {
		return nil, errDangling
	}
	outNr, ok := pc.placed[pageKey{pc.content, number}]
	if !ok {
		return nil, errDangling
	}

	dest := types.Array{pc.pageRefs[outNr-1]}
	for _, e := range arr[1:] {
		v, err := pc.src.ctx.Dereference(e)
		if err != nil {
			return nil, err
		}
		dest = append(dest, v)
	}

	// /XYZ left top zoom: move the view point with the page
	if len(dest) >= 4 && dest[1] == types.Name("XYZ") {
		left, okL := number64(dest[2])
		top, okT := number64(dest[3])
		if at, ok := pc.placementOf(pc.src, number, outNr); ok && okL && okT {
			x, y := at.point(left, top)
			dest[2], dest[3] = types.Float(x), types.Float(y)
		}
	}
	return dest, nil
}

// annotation builds the output dictionary of a planned annotation.
func (pc *pageCopy) annotation(plan *annotPlan) (types.Dict, error) {
	out := make(types.Dict, len(plan.dict))
	for k, v := range plan.dict {
		var (
			c   types.Object
			err error
		)
		switch k {
		case "P":
			c = pc.ref
		case "StructParent":
			continue
		case "Dest":
			if plan.dest == nil {
				continue
			}
			c = plan.dest
		case "A":
			if plan.internal {
				if plan.dest == nil {
					continue
				}
				c = types.Dict{"S": types.Name("GoTo"), "D": plan.dest}
				break
			}
			c, err = pc.clone(v)
		case "Rect":
			c, err = pc.points(v, true)
		case "QuadPoints", "Vertices", "L", "CL":
			c, err = pc.points(v, false)
		case "InkList":
			c, err = pc.inkList(v)
		case "AP":
			if c, err = pc.clone(v); err == nil {
				pc.turnAppearance(c)
			}
		default:
			c, err = pc.clone(v)
		}
		if err != nil {
			return nil, fmt.Errorf("annotation /%s: %w", k, err)
		}
		if c != nil {
			out[k] = c
		}
	}
	return out, nil
}

// clone copies o and every object it references from the source into
// the output. A reference to a source page becomes a reference to the
// output page showing it, or null when there is none.
func (pc *pageCopy) clone(o types.Object) (types.Object, error) {
	switch v := o.(type) {
	case types.IndirectRef:
		nr := v.ObjectNumber.Value()
		if c, ok := pc.memo[nr]; ok {
			return c, nil
		}
		if number, ok := pc.src.pages[nr]; ok {
			if outNr, ok := pc.placed[pageKey{pc.content, number}]; ok {
				return pc.pageRefs[outNr-1], nil
			}
			return nil, nil
		}
		obj, err := pc.src.ctx.Dereference(v)
		if err != nil {
			return nil, err
		}
		if obj == nil {
			return nil, nil
		}
		ref, err := pc.dst.IndRefForNewObject(types.Dict{})
		if err != nil {
			return nil, err
		}
		pc.memo[nr] = *ref
		c, err := pc.clone(obj)
		if err != nil {
			return nil, err
		}
		pc.dst.Table[ref.ObjectNumber.Value()].Object = c
		return *ref, nil

	case types.Dict:
		out := make(types.Dict, len(v))
		for k, e := range v {
			c, err := pc.clone(e)
			if err != nil {
				return nil, err
			}
			if c != nil {
				out[k] = c
			}
		}
		return out, nil

	case types.Array:
		out := make(types.Array, len(v))
		for i, e := range v {
			c, err := pc.clone(e)
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil

	case types.StreamDict:
		c, err := pc.clone(v.Dict)
		if err != nil {
			return nil, err
		}
		d := c.(types.Dict)
		n := int64(len(v.Raw))
		d["Length"] = types.Integer(n)
		filters := make([]types.PDFFilter, len(v.FilterPipeline))
		copy(filters, v.FilterPipeline)
		return types.StreamDict{
			Dict:           d,
			StreamLength:   &n,
			FilterPipeline: filters,
			Raw:            v.Raw,
		}, nil

	default:
		return o, nil
	}
}

// points maps a flat array of x, y pairs onto the output page. A Rect is
// normalized to lower left and upper right corners.
func (pc *pageCopy) points(o types.Object, rect bool) (types.Object, error) {
	arr, err := pc.src.ctx.DereferenceArray(o)
	if err != nil || len(arr)%2 != 0 {
		return pc.clone(o)
	}
	coords := make([]float64, len(arr))
	for i, e := range arr {
		v, err := pc.src.ctx.Dereference(e)
		if err != nil {
			return nil, err
		}
		f, ok := number64(v)
		if !ok {
			return pc.clone(o)
		}
		coords[i] = f
	}
	for i := 0; i < len(coords); i += 2 {
		coords[i], coords[i+1] = pc.at.point(coords[i], coords[i+1])
	}
	if rect && len(coords) == 4 {
		coords = []float64{
			min(coords[0], coords[2]), min(coords[1], coords[3]),
			max(coords[0], coords[2]), max(coords[1], coords[3]),
		}
	}

	out := make(types.Array, len(coords))
	for i, f := range coords {
		out[i] = types.Float(f)
	}
	return out, nil
}

func (pc *pageCopy) inkList(o types.Object) (types.Object, error) {
	arr, err := pc.src.ctx.DereferenceArray(o)
	if err != nil {
		return pc.clone(o)
	}
	out := make(types.Array, 0, len(arr))
	for _, path := range arr {
		c, err := pc.points(path, false)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// turnAppearance turns the appearance streams of a copied /AP entry with
// the page, so they keep their orientation inside the turned /Rect.
func (pc *pageCopy) turnAppearance(ap types.Object) {
	if pc.at.rot == 0 {
		return
	}
	d, err := pc.dst.DereferenceDict(ap)
	if err != nil || d == nil {
		return
	}
	for _, key := range []string{"N", "R", "D"} {
		e, ok := d[key]
		if !ok {
			continue
		}
		obj, err := pc.dst.Dereference(e)
		if err != nil {
			continue
		}
		switch v := obj.(type) {
		case types.StreamDict:
			pc.turnForm(e)
		case types.Dict:
			// One appearance per state
			for _, s := range v {
				pc.turnForm(s)
			}
		}
	}
}

func (pc *pageCopy) turnForm(o types.Object) {
	ref, ok := o.(types.IndirectRef)
	if !ok {
		return
	}
	nr := ref.ObjectNumber.Value()
	if pc.turned[nr] {
		return
	}
	pc.turned[nr] = true

	entry, ok := pc.dst.Table[nr]
	if !ok || entry == nil {
		return
	}
	sd, ok := entry.Object.(types.StreamDict)
	if !ok {
		return
	}
	m := [6]float64{1, 0, 0, 1, 0, 0}
	if arr, ok := sd.Dict["Matrix"].(types.Array); ok && len(arr) == 6 {
		for i, e := range arr {
			if f, ok := number64(e); ok {
				m[i] = f
			}
		}
	}
	m = pc.at.turn(m)
	sd.Dict["Matrix"] = types.Array{
		types.Float(m[0]), types.Float(m[1]), types.Float(m[2]),
		types.Float(m[3]), types.Float(m[4]), types.Float(m[5]),
	}
	entry.Object = sd
}

// resolveDest returns the explicit destination array o stands for.
// Named destinations are looked up in the /Dests name tree and in the
// catalog /Dests dictionary.
func (s *annotSource) resolveDest(o types.Object, byName bool) (types.Array, error) {
	o, err := s.ctx.Dereference(o)
	if err != nil {
		return nil, err
	}
	switch v := o.(type) {
	case types.Array:
		return v, nil
	case types.Dict:
		return s.resolveDest(v["D"], false)
	case types.Name:
		if byName {
			return s.namedDest(string(v))
		}
	case types.StringLiteral:
		if byName {
			name, err := types.StringLiteralToString(v)
			if err != nil {
				return nil, err
			}
			return s.namedDest(name)
		}
	case types.HexLiteral:
		if byName {
			name, err := types.HexLiteralToString(v)
			if err != nil {
				return nil, err
			}
			return s.namedDest(name)
		}
	}
	return nil, errDangling
}

func (s *annotSource) namedDest(name string) (types.Array, error) {
	if err := s.ctx.LocateNameTree("Dests", false); err == nil {
		if tree := s.ctx.Names["Dests"]; tree != nil {
			if o, ok := tree.Value(name); ok {
				return s.resolveDest(o, false)
			}
		}
	}
	catalog, err := s.ctx.Catalog()
	if err != nil {
		return nil, err
	}
	if o, ok := catalog.Find("Dests"); ok {
		if dests, err := s.ctx.DereferenceDict(o); err == nil && dests != nil {
			if o, ok := dests.Find(name); ok {
				return s.resolveDest(o, false)
			}
		}
	}
	return nil, errDangling
}

func number64(o types.Object) (float64, bool) {
	switch v := o.(type) {
	case types.Integer:
		return float64(v), true
	case types.Float:
		return float64(v), true
	}
	return 0, false
}
