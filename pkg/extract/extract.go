// Package extract converts raw document payloads into plain text. Each
// modality has its own extractor; the service dispatches on the document's
// modality and records which extractor ran and how long it took.
package extract

import (
	"context"
	"fmt"
	"time"

	"mmrag/pkg/domain"
	"mmrag/pkg/llm"
	"mmrag/pkg/serrors"
)

// Service extracts text from document payloads. Image and audio documents
// are delegated to model providers; text and PDF are handled locally.
type Service struct {
	ocr         llm.OCR
	transcriber llm.Transcriber
}

// New constructs an extraction Service. ocr and transcriber may be nil, in
// which case image respectively audio documents are rejected as unsupported.
func New(ocr llm.OCR, transcriber llm.Transcriber) *Service {
	return &Service{
		ocr:         ocr,
		transcriber: transcriber,
	}
}

// Extract produces the text representation of the document payload. The
// returned Extraction carries the extractor name and wall-clock duration.
// Payloads that cannot yield text return an ErrUnsupported kind so callers
// can fail the document without retrying. The rate-limit status reflects the
// provider call made for this document, if any, so callers can honor the
// reported reset time when extraction is rate limited.
func (s *Service) Extract(ctx context.Context, doc *domain.Document) (domain.Extraction, llm.RateLimitStatus, error) {
	start := time.Now()

	var (
		extraction domain.Extraction
		rlStatus   llm.RateLimitStatus
		err        error
	)
	switch doc.Modality {
	case domain.ModalityText:
		extraction, err = extractText(doc.Payload)
	case domain.ModalityPDF:
		extraction, err = extractPDF(doc.Payload)
	case domain.ModalityImage:
		extraction, err = s.extractImage(ctx, doc)
	case domain.ModalityAudio:
		extraction, rlStatus, err = s.extractAudio(ctx, doc)
	default:
		err = serrors.With(serrors.ErrUnsupported, "unsupported modality: %s", doc.Modality)
	}
	if err != nil {
		return domain.Extraction{}, rlStatus, err
	}

	extraction.Duration = time.Since(start)

	return extraction, rlStatus, nil
}

func (s *Service) extractImage(ctx context.Context, doc *domain.Document) (domain.Extraction, error) {
	if s.ocr == nil {
		return domain.Extraction{}, serrors.With(serrors.ErrUnsupported, "no OCR provider configured")
	}

	text, err := s.ocr.ImageText(ctx, doc.Payload, doc.MimeType)
	if err != nil {
		return domain.Extraction{}, fmt.Errorf("could not extract image text: %w", err)
	}
	if text == "" {
		return domain.Extraction{}, serrors.With(serrors.ErrUnsupported, "image yielded no text")
	}

	return domain.Extraction{Text: text, Extractor: "ocr"}, nil
}

func (s *Service) extractAudio(ctx context.Context, doc *domain.Document) (domain.Extraction, llm.RateLimitStatus, error) {
	if s.transcriber == nil {
		return domain.Extraction{}, llm.RateLimitStatus{},
			serrors.With(serrors.ErrUnsupported, "no transcription provider configured")
	}

	text, rlStatus, err := s.transcriber.Transcribe(ctx, doc.Payload, doc.MimeType)
	if err != nil {
		return domain.Extraction{}, rlStatus, fmt.Errorf("could not transcribe audio: %w", err)
	}
	if text == "" {
		return domain.Extraction{}, rlStatus, serrors.With(serrors.ErrUnsupported, "audio yielded no transcript")
	}

	return domain.Extraction{Text: text, Extractor: "transcription"}, rlStatus, nil
}
