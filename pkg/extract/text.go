package extract

import (
	"strings"
	"unicode/utf8"

	"mmrag/pkg/domain"
	"mmrag/pkg/serrors"
)

// extractText validates and normalizes a plain-text payload. CRLF line
// endings are normalized and NUL bytes rejected, since a NUL usually means a
// binary file was uploaded with a text MIME type.
func extractText(payload []byte) (domain.Extraction, error) {
	if !utf8.Valid(payload) {
		return domain.Extraction{}, serrors.With(serrors.ErrUnsupported, "payload is not valid UTF-8")
	}

	text := strings.ReplaceAll(string(payload), "\r\n", "\n")
	if strings.ContainsRune(text, 0) {
		return domain.Extraction{}, serrors.With(serrors.ErrUnsupported, "payload contains NUL bytes")
	}
	if strings.TrimSpace(text) == "" {
		return domain.Extraction{}, serrors.With(serrors.ErrUnsupported, "payload is empty")
	}

	return domain.Extraction{Text: text, Extractor: "plaintext"}, nil
}
