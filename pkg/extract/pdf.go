package extract

import (
	"bytes"
	"strings"

	"mmrag/pkg/domain"
	"mmrag/pkg/serrors"

	"github.com/ledongthuc/pdf"
)

// extractPDF pulls the text layer out of a PDF payload page by page. PDFs
// without a text layer (pure scans) are reported as unsupported; pages that
// fail individually are skipped.
func extractPDF(payload []byte) (domain.Extraction, error) {
	reader, err := pdf.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return domain.Extraction{}, serrors.Wrap(serrors.ErrUnsupported, err, "could not parse PDF")
	}

	var sb strings.Builder
	pageCount := reader.NumPage()
	for i := 1; i <= pageCount; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(strings.TrimSpace(text))
	}

	if sb.Len() == 0 {
		return domain.Extraction{}, serrors.With(serrors.ErrUnsupported, "PDF has no extractable text layer")
	}

	return domain.Extraction{
		Text:      sb.String(),
		Extractor: "pdf-text",
		Pages:     pageCount,
	}, nil
}
