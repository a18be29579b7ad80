package ingest

import (
	"mime"
	"strings"

	"mmrag/pkg/domain"
	"mmrag/pkg/serrors"
)

// DetectModality maps a declared MIME type onto an ingestion modality. The
// mapping is intentionally narrow: only types the extractors actually handle
// are accepted, everything else is rejected so a document is never stored
// that the pipeline cannot process.
func DetectModality(mimeType string) (domain.Modality, string, error) {
	parsed, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return "", "", serrors.Wrap(serrors.ErrBadRequest, err, "invalid content type")
	}
	parsed = strings.ToLower(parsed)

	switch {
	case parsed == "application/pdf":
		return domain.ModalityPDF, parsed, nil
	case parsed == "text/plain", parsed == "text/markdown", parsed == "text/csv":
		return domain.ModalityText, parsed, nil
	case parsed == "image/png", parsed == "image/jpeg", parsed == "image/webp":
		return domain.ModalityImage, parsed, nil
	case strings.HasPrefix(parsed, "audio/"):
		return domain.ModalityAudio, parsed, nil
	default:
		return "", "", serrors.With(serrors.ErrBadRequest, "unsupported content type: %s", parsed)
	}
}
