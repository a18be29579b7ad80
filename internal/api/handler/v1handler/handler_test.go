package v1handler_test

import (
	"context"
	"net/http"
	"testing"

	"mmrag/internal/api/handler/v1handler"
	mockingest "mmrag/internal/ingest/mock"
	mockquery "mmrag/internal/query/mock"
	"mmrag/pkg/domain"
	"mmrag/pkg/logger"

	"go.uber.org/mock/gomock"
)

func TestMain(m *testing.M) {
	logger.Setup(logger.DevelopmentEnvironment)
	m.Run()
}

// newTestMux builds a mux with the v1 routes mounted behind a middleware that
// injects a fixed user ID, standing in for the JWT middleware.
func newTestMux(t *testing.T, userID domain.UserID) (*mockingest.MockIngestor, *mockquery.MockQuerier, *http.ServeMux) {
	t.Helper()

	ctrl := gomock.NewController(t)
	ingestor := mockingest.NewMockIngestor(ctrl)
	querier := mockquery.NewMockQuerier(ctrl)

	mux := newUserMux(t, v1handler.Deps{
		Ingestor:       ingestor,
		Querier:        querier,
		MaxUploadBytes: 1 << 20,
	}, userID)

	return ingestor, querier, mux
}

// newUserMux mounts the v1 routes for the given deps behind the fixed-user
// middleware.
func newUserMux(t *testing.T, deps v1handler.Deps, userID domain.UserID) *http.ServeMux {
	t.Helper()

	mux := http.NewServeMux()
	v1handler.New(deps).Register(mux, func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), v1handler.UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})

	return mux
}
