package mcp

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"

	"github.com/lvillar/pdfmerge"
	"github.com/lvillar/pdfmerge/pageops"
	"github.com/lvillar/pdfmerge/source"
)

// RegisterDefaultTools adds all built-in merge tools to the server.
func RegisterDefaultTools(s *Server) {
	s.AddTool(mergePDFsTool(s.cfg))
	s.AddTool(previewMergeTool(s.cfg))
	s.AddTool(pdfInfoTool())
	s.AddTool(readOutlineTool(s.cfg))
}

var sourcesSchema = map[string]interface{}{
	"type": "array",
	"items": map[string]interface{}{
		"oneOf": []interface{}{
			map[string]interface{}{
				"type":        "string",
				"description": "Selection in the form path[:range[:rotation]], e.g. report.pdf:3-1:90",
			},
			map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":      map[string]interface{}{"type": "string"},
					"firstPage": map[string]interface{}{"type": "number", "description": "1-based first page, default 1"},
					"lastPage":  map[string]interface{}{"type": "number", "description": "1-based last page, default the last page; lower than firstPage selects backwards"},
					"rotation":  map[string]interface{}{"type": "number", "description": "0, 90, 180, 270 or -90"},
				},
				"required": []string{"path"},
			},
		},
	},
	"description": "Sources to merge, in order. PDF, image, text, markdown and HTML files are accepted.",
}

func mergePDFsTool(cfg pdfmerge.Config) Tool {
	return Tool{
		Name:        "merge_pdfs",
		Description: "Merge page ranges of several files into one PDF. Sources that cannot be read or are encrypted are skipped and reported.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"sources": sourcesSchema,
				"outputPath": map[string]interface{}{
					"type":        "string",
					"description": "Path for the merged output PDF",
				},
				"finalize": map[string]interface{}{
					"type":        "boolean",
					"description": "Merge the outlines of the sources (default true)",
				},
				"compress": map[string]interface{}{
					"type":        "boolean",
					"description": "Compress page streams",
				},
				"dedupe": map[string]interface{}{
					"type":        "boolean",
					"description": "Share duplicate resources and drop unused objects",
				},
			},
			"required": []string{"sources", "outputPath"},
		},
		Handler: func(args map[string]interface{}) (ToolResult, error) {
			return handleMergePDFs(cfg, args)
		},
	}
}

func handleMergePDFs(cfg pdfmerge.Config, args map[string]interface{}) (ToolResult, error) {
	sels, err := parseSources(args["sources"])
	if err != nil {
		return ToolResult{}, err
	}
	outputPath, ok := args["outputPath"].(string)
	if !ok || outputPath == "" {
		return ToolResult{}, fmt.Errorf("%w: missing 'outputPath' argument", pdfmerge.ErrInvalidParam)
	}
	finalize := true
	if f, ok := args["finalize"].(bool); ok {
		finalize = f
	}

	res, err := pageops.NewMerger(source.NewRegistry(cfg), cfg).Merge(sels, finalize)
	if err != nil {
		return ToolResult{}, fmt.Errorf("merging: %w", err)
	}
	if err := pageops.Save(res.Document, outputPath, saveOptions(cfg, args)); err != nil {
		return ToolResult{}, fmt.Errorf("saving: %w", err)
	}

	return ToolResult{
		Content: []ContentBlock{{
			Type: "text",
			Text: fmt.Sprintf("Merged %d pages with %d outline entries into %s%s",
				res.Document.PageCount(), len(res.Document.Outline()), outputPath, skipReport(res.Skipped)),
		}},
	}, nil
}

func previewMergeTool(cfg pdfmerge.Config) Tool {
	return Tool{
		Name:        "preview_merge",
		Description: "Merge the pages of several files without outlines and return the PDF as base64.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"sources": sourcesSchema,
			},
			"required": []string{"sources"},
		},
		Handler: func(args map[string]interface{}) (ToolResult, error) {
			return handlePreviewMerge(cfg, args)
		},
	}
}

func handlePreviewMerge(cfg pdfmerge.Config, args map[string]interface{}) (ToolResult, error) {
	sels, err := parseSources(args["sources"])
	if err != nil {
		return ToolResult{}, err
	}

	res, err := pageops.NewMerger(source.NewRegistry(cfg), cfg).Merge(sels, false)
	if err != nil {
		return ToolResult{}, fmt.Errorf("merging: %w", err)
	}
	var buf bytes.Buffer
	if err := pageops.Write(&buf, res.Document, pageops.SaveOptions{CompressionLevel: 1, Logger: cfg.Logger}); err != nil {
		return ToolResult{}, fmt.Errorf("rendering preview: %w", err)
	}

	return ToolResult{
		Content: []ContentBlock{
			{
				Type: "text",
				Text: fmt.Sprintf("Preview of %d pages (%d bytes)%s",
					res.Document.PageCount(), buf.Len(), skipReport(res.Skipped)),
			},
			{
				Type:     "resource",
				MIMEType: "application/pdf",
				Data:     base64.StdEncoding.EncodeToString(buf.Bytes()),
			},
		},
	}, nil
}

func pdfInfoTool() Tool {
	return Tool{
		Name:        "pdf_info",
		Description: "Get information about a PDF file: version, page count and sizes, outline size, metadata and encryption.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Path to the PDF file",
				},
			},
			"required": []string{"path"},
		},
		Handler: handlePDFInfo,
	}
}

func handlePDFInfo(args map[string]interface{}) (ToolResult, error) {
	path, ok := args["path"].(string)
	if !ok {
		return ToolResult{}, fmt.Errorf("%w: missing 'path' argument", pdfmerge.ErrInvalidParam)
	}

	info, err := source.Inspect(path)
	if err != nil {
		return ToolResult{}, err
	}

	jsonBytes, _ := json.MarshalIndent(infoJSON(info), "", "  ")
	return ToolResult{
		Content: []ContentBlock{{Type: "text", Text: string(jsonBytes)}},
	}, nil
}

func readOutlineTool(cfg pdfmerge.Config) Tool {
	return Tool{
		Name:        "read_outline",
		Description: "List the outline (bookmarks) of a file as it would enter a merge.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Path to a PDF, image, text, markdown or HTML file",
				},
			},
			"required": []string{"path"},
		},
		Handler: func(args map[string]interface{}) (ToolResult, error) {
			path, ok := args["path"].(string)
			if !ok {
				return ToolResult{}, fmt.Errorf("%w: missing 'path' argument", pdfmerge.ErrInvalidParam)
			}
			entries, err := readOutline(cfg, path)
			if err != nil {
				return ToolResult{}, err
			}
			jsonBytes, _ := json.MarshalIndent(map[string]interface{}{
				"count":   len(entries),
				"entries": entries,
			}, "", "  ")
			return ToolResult{
				Content: []ContentBlock{{Type: "text", Text: string(jsonBytes)}},
			}, nil
		},
	}
}

// readOutline opens path through a Registry and returns its outline in
// JSON form.
func readOutline(cfg pdfmerge.Config, path string) ([]map[string]interface{}, error) {
	doc, err := source.NewRegistry(cfg).Open(path)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	entries := make([]map[string]interface{}, 0, len(doc.Outline()))
	for _, e := range doc.Outline() {
		entry := map[string]interface{}{
			"level":  e.Level,
			"title":  e.Title,
			"target": e.Target.String(),
		}
		if page, ok := pdfmerge.TargetPage(e.Target); ok {
			entry["page"] = page
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func infoJSON(info *source.Info) map[string]interface{} {
	out := map[string]interface{}{
		"path":      info.Path,
		"encrypted": info.Encrypted,
	}
	if info.Encrypted {
		out["passwordRequired"] = info.PasswordRequired
		return out
	}

	pages := make([]map[string]interface{}, 0, len(info.Sizes))
	for i, size := range info.Sizes {
		pages = append(pages, map[string]interface{}{
			"page":   i + 1,
			"width":  size[0],
			"height": size[1],
		})
	}
	out["version"] = info.Version
	out["numPages"] = info.Pages
	out["pages"] = pages
	out["outlineEntries"] = info.Outline
	out["metadata"] = info.Metadata
	return out
}

// parseSources accepts selection strings and selection objects.
func parseSources(raw interface{}) ([]pdfmerge.Selection, error) {
	items, ok := raw.([]interface{})
	if !ok || len(items) == 0 {
		return nil, fmt.Errorf("%w: missing 'sources' argument", pdfmerge.ErrInvalidParam)
	}

	sels := make([]pdfmerge.Selection, 0, len(items))
	for i, item := range items {
		switch v := item.(type) {
		case string:
			sel, err := pdfmerge.ParseSelection(v)
			if err != nil {
				return nil, fmt.Errorf("source %d: %w", i+1, err)
			}
			sels = append(sels, sel)
		case map[string]interface{}:
			sel, err := selectionFromObject(v)
			if err != nil {
				return nil, fmt.Errorf("source %d: %w", i+1, err)
			}
			sels = append(sels, sel)
		default:
			return nil, fmt.Errorf("%w: source %d: expected a string or an object", pdfmerge.ErrInvalidParam, i+1)
		}
	}
	return sels, nil
}

func selectionFromObject(obj map[string]interface{}) (pdfmerge.Selection, error) {
	path, _ := obj["path"].(string)
	if path == "" {
		return pdfmerge.Selection{}, fmt.Errorf("%w: missing path", pdfmerge.ErrInvalidParam)
	}
	sel := pdfmerge.All(path)
	if n, ok, err := intArg(obj, "firstPage"); err != nil {
		return pdfmerge.Selection{}, err
	} else if ok {
		if n < 1 {
			return pdfmerge.Selection{}, fmt.Errorf("%w: firstPage %d", pdfmerge.ErrInvalidParam, n)
		}
		sel.First = n - 1
	}
	if n, ok, err := intArg(obj, "lastPage"); err != nil {
		return pdfmerge.Selection{}, err
	} else if ok {
		if n < 1 {
			return pdfmerge.Selection{}, fmt.Errorf("%w: lastPage %d", pdfmerge.ErrInvalidParam, n)
		}
		sel.Last = n - 1
	}
	if n, ok, err := intArg(obj, "rotation"); err != nil {
		return pdfmerge.Selection{}, err
	} else if ok {
		rot, err := pdfmerge.NewRotation(n)
		if err != nil {
			return pdfmerge.Selection{}, err
		}
		sel.Rotation = rot
	}
	return sel, nil
}

// intArg reads an integral JSON number. Fractions and other types are
// rejected rather than truncated.
func intArg(obj map[string]interface{}, key string) (int, bool, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return 0, false, nil
	}
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false, fmt.Errorf("%w: %s must be an integer, got %v", pdfmerge.ErrInvalidParam, key, v)
	}
	return int(f), true, nil
}

func saveOptions(cfg pdfmerge.Config, args map[string]interface{}) pageops.SaveOptions {
	opts := pageops.SaveOptions{Logger: cfg.Logger}
	if c, _ := args["compress"].(bool); c {
		opts.CompressionLevel = 1
	}
	opts.DedupeObjects, _ = args["dedupe"].(bool)
	return opts
}

func skipReport(skipped []pageops.Skip) string {
	if len(skipped) == 0 {
		return ""
	}
	report := fmt.Sprintf("\nSkipped %d source(s):", len(skipped))
	for _, s := range skipped {
		report += fmt.Sprintf("\n- %s: %v", s.Path, s.Err)
	}
	return report
}
