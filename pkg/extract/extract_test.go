package extract_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"mmrag/pkg/domain"
	"mmrag/pkg/extract"
	"mmrag/pkg/llm"
	mockllm "mmrag/pkg/llm/mock"
	"mmrag/pkg/serrors"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestService_Extract_Text(t *testing.T) {
	t.Parallel()

	s := extract.New(nil, nil)
	ctx := context.Background()

	t.Run("valid text", func(t *testing.T) {
		t.Parallel()

		res, _, err := s.Extract(ctx, &domain.Document{
			Modality: domain.ModalityText,
			Payload:  []byte("line one\r\nline two"),
		})
		require.NoError(t, err)
		require.Equal(t, "line one\nline two", res.Text)
		require.Equal(t, "plaintext", res.Extractor)
	})

	t.Run("invalid utf8", func(t *testing.T) {
		t.Parallel()

		_, _, err := s.Extract(ctx, &domain.Document{
			Modality: domain.ModalityText,
			Payload:  []byte{0xff, 0xfe, 0xfd},
		})
		require.ErrorIs(t, err, serrors.ErrUnsupported)
	})

	t.Run("nul bytes", func(t *testing.T) {
		t.Parallel()

		_, _, err := s.Extract(ctx, &domain.Document{
			Modality: domain.ModalityText,
			Payload:  []byte("abc\x00def"),
		})
		require.ErrorIs(t, err, serrors.ErrUnsupported)
	})

	t.Run("blank text", func(t *testing.T) {
		t.Parallel()

		_, _, err := s.Extract(ctx, &domain.Document{
			Modality: domain.ModalityText,
			Payload:  []byte("  \n\t "),
		})
		require.ErrorIs(t, err, serrors.ErrUnsupported)
	})
}

func TestService_Extract_PDF_Invalid(t *testing.T) {
	t.Parallel()

	s := extract.New(nil, nil)

	_, _, err := s.Extract(context.Background(), &domain.Document{
		Modality: domain.ModalityPDF,
		Payload:  []byte("definitely not a pdf"),
	})
	require.ErrorIs(t, err, serrors.ErrUnsupported)
}

func TestService_Extract_Image(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	payload := []byte("fake-png")
	doc := &domain.Document{
		Modality: domain.ModalityImage,
		MimeType: "image/png",
		Payload:  payload,
	}

	t.Run("delegates to OCR", func(t *testing.T) {
		t.Parallel()

		ctrl := gomock.NewController(t)
		ocr := mockllm.NewMockOCR(ctrl)
		ocr.EXPECT().ImageText(gomock.Any(), payload, "image/png").Return("# Heading\n\nBody", nil)

		res, _, err := extract.New(ocr, nil).Extract(ctx, doc)
		require.NoError(t, err)
		require.Equal(t, "# Heading\n\nBody", res.Text)
		require.Equal(t, "ocr", res.Extractor)
	})

	t.Run("propagates provider error", func(t *testing.T) {
		t.Parallel()

		ctrl := gomock.NewController(t)
		ocr := mockllm.NewMockOCR(ctrl)
		ocr.EXPECT().ImageText(gomock.Any(), gomock.Any(), gomock.Any()).
			Return("", serrors.With(serrors.ErrRateLimited, "slow down"))

		_, _, err := extract.New(ocr, nil).Extract(ctx, doc)
		require.ErrorIs(t, err, serrors.ErrRateLimited)
	})

	t.Run("empty OCR output is unsupported", func(t *testing.T) {
		t.Parallel()

		ctrl := gomock.NewController(t)
		ocr := mockllm.NewMockOCR(ctrl)
		ocr.EXPECT().ImageText(gomock.Any(), gomock.Any(), gomock.Any()).Return("", nil)

		_, _, err := extract.New(ocr, nil).Extract(ctx, doc)
		require.ErrorIs(t, err, serrors.ErrUnsupported)
	})

	t.Run("no provider configured", func(t *testing.T) {
		t.Parallel()

		_, _, err := extract.New(nil, nil).Extract(ctx, doc)
		require.ErrorIs(t, err, serrors.ErrUnsupported)
	})
}

func TestService_Extract_Audio(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	payload := []byte("fake-mp3")
	doc := &domain.Document{
		Modality: domain.ModalityAudio,
		MimeType: "audio/mpeg",
		Payload:  payload,
	}

	t.Run("delegates to transcriber", func(t *testing.T) {
		t.Parallel()

		ctrl := gomock.NewController(t)
		tr := mockllm.NewMockTranscriber(ctrl)
		tr.EXPECT().Transcribe(gomock.Any(), payload, "audio/mpeg").
			Return("hello world", llm.RateLimitStatus{}, nil)

		res, _, err := extract.New(nil, tr).Extract(ctx, doc)
		require.NoError(t, err)
		require.Equal(t, "hello world", res.Text)
		require.Equal(t, "transcription", res.Extractor)
	})

	t.Run("propagates provider error", func(t *testing.T) {
		t.Parallel()

		ctrl := gomock.NewController(t)
		tr := mockllm.NewMockTranscriber(ctrl)
		tr.EXPECT().Transcribe(gomock.Any(), gomock.Any(), gomock.Any()).
			Return("", llm.RateLimitStatus{}, errors.New("boom"))

		_, _, err := extract.New(nil, tr).Extract(ctx, doc)
		require.Error(t, err)
		require.Contains(t, err.Error(), "boom")
	})

	t.Run("surfaces rate-limit status on provider 429", func(t *testing.T) {
		t.Parallel()

		rl := llm.RateLimitStatus{Limit: 10, Remaining: 0, ResetAt: time.Now().Add(time.Minute)}
		ctrl := gomock.NewController(t)
		tr := mockllm.NewMockTranscriber(ctrl)
		tr.EXPECT().Transcribe(gomock.Any(), gomock.Any(), gomock.Any()).
			Return("", rl, serrors.With(serrors.ErrRateLimited, "slow down"))

		_, got, err := extract.New(nil, tr).Extract(ctx, doc)
		require.ErrorIs(t, err, serrors.ErrRateLimited)
		require.Equal(t, rl, got)
	})

	t.Run("no provider configured", func(t *testing.T) {
		t.Parallel()

		_, _, err := extract.New(nil, nil).Extract(ctx, doc)
		require.ErrorIs(t, err, serrors.ErrUnsupported)
	})
}

func TestService_Extract_UnknownModality(t *testing.T) {
	t.Parallel()

	_, _, err := extract.New(nil, nil).Extract(context.Background(), &domain.Document{
		Modality: domain.Modality("VIDEO"),
	})
	require.ErrorIs(t, err, serrors.ErrUnsupported)
}
