package chi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/matchmaker/internal/domain/pairing"
	"github.com/kailas-cloud/matchmaker/internal/domain/profile"
	healthuc "github.com/kailas-cloud/matchmaker/internal/usecase/health"
	matchinguc "github.com/kailas-cloud/matchmaker/internal/usecase/matching"
)

// --- Mocks ---

type mockMatcher struct {
	findFn func(ctx context.Context, subjectID string, limit int) (matchinguc.Result, error)
	rankFn func(
		ctx context.Context, subject profile.Profile, pool []profile.Profile,
		connections []pairing.Connection, exclusions []pairing.Exclusion, limit int,
	) (matchinguc.Result, error)
}

func (m *mockMatcher) FindMatches(ctx context.Context, subjectID string, limit int) (matchinguc.Result, error) {
	if m.findFn != nil {
		return m.findFn(ctx, subjectID, limit)
	}
	return matchinguc.Result{}, nil
}

func (m *mockMatcher) Rank(
	ctx context.Context, subject profile.Profile, pool []profile.Profile,
	connections []pairing.Connection, exclusions []pairing.Exclusion, limit int,
) (matchinguc.Result, error) {
	if m.rankFn != nil {
		return m.rankFn(ctx, subject, pool, connections, exclusions, limit)
	}
	return matchinguc.Result{}, nil
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

// --- Helpers ---

func newTestRouter(t *testing.T, m *mockMatcher, h *mockHealth, apiKeys ...string) http.Handler {
	t.Helper()
	if h == nil {
		h = &mockHealth{report: healthuc.Report{Status: healthuc.Healthy}}
	}
	return NewRouter(NewServer(m, h, zap.NewNop()), apiKeys, zap.NewNop())
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}
