package mcp

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/lvillar/pdfmerge"
	"github.com/lvillar/pdfmerge/source"
)

// RegisterDefaultResources adds all built-in PDF resources to the server.
// Resources use the pdf:// scheme and take the file as a path query
// parameter.
func RegisterDefaultResources(s *Server) {
	s.AddResource(Resource{
		URI:         "pdf://metadata",
		Name:        "PDF Metadata",
		Description: "Get metadata from a PDF file (version, title, author, encryption). Pass the file path as a query parameter: pdf://metadata?path=/path/to/file.pdf",
		MIMEType:    "application/json",
		Handler:     handleMetadataResource,
	})

	s.AddResource(Resource{
		URI:         "pdf://pages",
		Name:        "PDF Page Info",
		Description: "Get page information from a PDF (count, displayed dimensions). Pass the file path as a query parameter: pdf://pages?path=/path/to/file.pdf",
		MIMEType:    "application/json",
		Handler:     handlePagesResource,
	})

	cfg := s.cfg
	s.AddResource(Resource{
		URI:         "pdf://outline",
		Name:        "Outline",
		Description: "List the outline of a file as it would enter a merge. Pass the file path as a query parameter: pdf://outline?path=/path/to/file.pdf",
		MIMEType:    "application/json",
		Handler: func(uri string) ([]ResourceContent, error) {
			return handleOutlineResource(cfg, uri)
		},
	})
}

// extractPathFromURI returns the path query parameter of a URI such as
// pdf://pages?path=/foo/bar.pdf.
func extractPathFromURI(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("%w: resource URI %q: %w", pdfmerge.ErrInvalidParam, uri, err)
	}
	path := u.Query().Get("path")
	if path == "" {
		return "", fmt.Errorf("%w: missing 'path' parameter in URI %q", pdfmerge.ErrInvalidParam, uri)
	}
	return path, nil
}

func jsonContent(uri string, v interface{}) []ResourceContent {
	jsonBytes, _ := json.MarshalIndent(v, "", "  ")
	return []ResourceContent{{
		URI:      uri,
		MIMEType: "application/json",
		Text:     string(jsonBytes),
	}}
}

func handleMetadataResource(uri string) ([]ResourceContent, error) {
	path, err := extractPathFromURI(uri)
	if err != nil {
		return nil, err
	}

	info, err := source.Inspect(path)
	if err != nil {
		return nil, err
	}

	out := map[string]interface{}{
		"encrypted": info.Encrypted,
	}
	if info.Encrypted {
		out["passwordRequired"] = info.PasswordRequired
	} else {
		out["version"] = info.Version
		out["numPages"] = info.Pages
		out["metadata"] = info.Metadata
	}
	return jsonContent(uri, out), nil
}

func handlePagesResource(uri string) ([]ResourceContent, error) {
	path, err := extractPathFromURI(uri)
	if err != nil {
		return nil, err
	}

	info, err := source.Inspect(path)
	if err != nil {
		return nil, err
	}
	if info.Encrypted {
		return nil, pdfmerge.NewError("Inspect", path, pdfmerge.ErrEncrypted)
	}

	full := infoJSON(info)
	return jsonContent(uri, map[string]interface{}{
		"numPages": info.Pages,
		"pages":    full["pages"],
	}), nil
}

func handleOutlineResource(cfg pdfmerge.Config, uri string) ([]ResourceContent, error) {
	path, err := extractPathFromURI(uri)
	if err != nil {
		return nil, err
	}

	entries, err := readOutline(cfg, path)
	if err != nil {
		return nil, err
	}
	return jsonContent(uri, map[string]interface{}{
		"count":   len(entries),
		"entries": entries,
	}), nil
}
