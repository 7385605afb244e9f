package engine

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/wudi/pdftools/observability"
	"github.com/wudi/pdftools/security"
	"github.com/wudi/pdftools/stats"
)

// Unknown stands in for absent metadata.
const Unknown = "Unknown"

// DocumentInfo is a read-only summary of a document.
type DocumentInfo struct {
	Filename         string
	Size             int64
	SizeFormatted    string
	PageCount        int
	Encrypted        bool
	Title            string
	Author           string
	Creator          string
	Producer         string
	CreationDate     string
	ModificationDate string
}

// Info describes source. Missing or unreadable metadata is reported as
// Unknown. Encrypted documents that cannot be opened without a password
// report zero pages.
func (e *Engine) Info(ctx context.Context, source string) (*DocumentInfo, error) {
	var info *DocumentInfo
	fields := []observability.Field{observability.String("source", source)}
	err := e.run(ctx, observability.SpanInfo, fields, func(ctx context.Context, log observability.Logger) error {
		doc, err := e.open(ctx, source)
		if err != nil {
			return err
		}
		defer doc.Close()

		info = &DocumentInfo{
			Filename:         filepath.Base(source),
			Size:             doc.Size,
			SizeFormatted:    stats.FormatSize(doc.Size),
			PageCount:        doc.PageCount(),
			Encrypted:        doc.Encrypted,
			Title:            Unknown,
			Author:           Unknown,
			Creator:          Unknown,
			Producer:         Unknown,
			CreationDate:     Unknown,
			ModificationDate: Unknown,
		}
		if doc.Locked {
			return nil
		}

		meta, err := api.PDFInfo(doc.Reader(), info.Filename, nil, security.NewConfiguration(""))
		if err != nil {
			log.Warn("metadata unavailable", observability.Err(err))
			return nil
		}
		info.Title = orUnknown(meta.Title)
		info.Author = orUnknown(meta.Author)
		info.Creator = orUnknown(meta.Creator)
		info.Producer = orUnknown(meta.Producer)
		info.CreationDate = orUnknown(meta.CreationDate)
		info.ModificationDate = orUnknown(meta.ModificationDate)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return Unknown
	}
	return s
}
