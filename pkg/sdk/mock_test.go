package matchmaker

import (
	"context"

	"github.com/kailas-cloud/matchmaker/internal/domain/pairing"
	"github.com/kailas-cloud/matchmaker/internal/domain/profile"
	healthuc "github.com/kailas-cloud/matchmaker/internal/usecase/health"
	matchinguc "github.com/kailas-cloud/matchmaker/internal/usecase/matching"
)

// --- matcher mock ---

type mockMatcher struct {
	findFn func(ctx context.Context, uid string, limit int) (matchinguc.Result, error)
	rankFn func(
		ctx context.Context, subject profile.Profile, pool []profile.Profile,
		connections []pairing.Connection, exclusions []pairing.Exclusion, limit int,
	) (matchinguc.Result, error)
}

func (m *mockMatcher) FindMatches(ctx context.Context, uid string, limit int) (matchinguc.Result, error) {
	return m.findFn(ctx, uid, limit)
}

func (m *mockMatcher) Rank(
	ctx context.Context, subject profile.Profile, pool []profile.Profile,
	connections []pairing.Connection, exclusions []pairing.Exclusion, limit int,
) (matchinguc.Result, error) {
	return m.rankFn(ctx, subject, pool, connections, exclusions, limit)
}

// --- profileWriter mock ---

type mockProfileWriter struct {
	upsertFn func(ctx context.Context, p profile.Profile) error
	deleteFn func(ctx context.Context, uid string) error
}

func (m *mockProfileWriter) Upsert(ctx context.Context, p profile.Profile) error {
	return m.upsertFn(ctx, p)
}

func (m *mockProfileWriter) Delete(ctx context.Context, uid string) error {
	return m.deleteFn(ctx, uid)
}

// --- pairingWriter mock ---

type mockPairingWriter struct {
	connections []pairing.Connection
	exclusions  []pairing.Exclusion
	err         error
}

func (m *mockPairingWriter) AddConnection(_ context.Context, c pairing.Connection) error {
	m.connections = append(m.connections, c)
	return m.err
}

func (m *mockPairingWriter) AddExclusion(_ context.Context, e pairing.Exclusion) error {
	m.exclusions = append(m.exclusions, e)
	return m.err
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(_ context.Context) healthuc.Report { return m.report }

// --- embedder mock ---

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

// --- helpers ---

func testClient(m matcher, pw profileWriter, pr pairingWriter) *Client {
	return &Client{
		matchSvc: m,
		profiles: pw,
		pairings: pr,
	}
}
