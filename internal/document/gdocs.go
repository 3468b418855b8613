package document

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	gdocs "google.golang.org/api/docs/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// ErrNotFound is returned when the document id does not exist or is not shared.
var ErrNotFound = errors.New("document not found")

type documentGetter func(ctx context.Context, id string) (*gdocs.Document, error)

// GoogleDocs reads documents through the Docs API.
type GoogleDocs struct {
	get documentGetter
}

// NewGoogleDocs creates a Docs client authorized by ts.
func NewGoogleDocs(ctx context.Context, ts oauth2.TokenSource) (*GoogleDocs, error) {
	svc, err := gdocs.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create docs service: %w", err)
	}
	return &GoogleDocs{
		get: func(ctx context.Context, id string) (*gdocs.Document, error) {
			return svc.Documents.Get(id).Context(ctx).Do()
		},
	}, nil
}

// FetchText returns the concatenated text runs of the document.
func (g *GoogleDocs) FetchText(ctx context.Context, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", errors.New("document id is required")
	}

	doc, err := g.get(ctx, id)
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && (apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusForbidden) {
			return "", fmt.Errorf("%w: %s (%d)", ErrNotFound, id, apiErr.Code)
		}
		return "", fmt.Errorf("get document %s: %w", id, err)
	}

	return documentText(doc), nil
}

func documentText(doc *gdocs.Document) string {
	if doc == nil || doc.Body == nil {
		return ""
	}
	var b strings.Builder
	writeElements(&b, doc.Body.Content)
	return b.String()
}

func writeElements(b *strings.Builder, elements []*gdocs.StructuralElement) {
	for _, el := range elements {
		if el == nil {
			continue
		}
		if el.Paragraph != nil {
			for _, pe := range el.Paragraph.Elements {
				if pe != nil && pe.TextRun != nil {
					b.WriteString(pe.TextRun.Content)
				}
			}
		}
		if el.Table != nil {
			for _, row := range el.Table.TableRows {
				if row == nil {
					continue
				}
				for _, cell := range row.TableCells {
					if cell != nil {
						writeElements(b, cell.Content)
					}
				}
			}
		}
	}
}
