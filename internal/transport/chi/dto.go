package chi

import (
	"time"

	"github.com/kailas-cloud/matchmaker/internal/domain/match"
	"github.com/kailas-cloud/matchmaker/internal/domain/pairing"
	"github.com/kailas-cloud/matchmaker/internal/domain/profile"
	matchinguc "github.com/kailas-cloud/matchmaker/internal/usecase/matching"
)

// ErrorCode is the machine-readable error class in ErrorResponse.
type ErrorCode string

// Error codes returned by the API.
const (
	ErrorCodeBadRequest             ErrorCode = "bad_request"
	ErrorCodeValidationFailed       ErrorCode = "validation_failed"
	ErrorCodeUnauthorized           ErrorCode = "unauthorized"
	ErrorCodeProfileNotFound        ErrorCode = "profile_not_found"
	ErrorCodeEmbeddingProviderError ErrorCode = "embedding_provider_error"
	ErrorCodeVectorDimMismatch      ErrorCode = "vector_dim_mismatch"
	ErrorCodeInternalError          ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// MatchListResponse is the body of both ranking endpoints.
type MatchListResponse struct {
	Matches     []match.Score `json:"matches"`
	Considered  int           `json:"considered"`
	Filtered    int           `json:"filtered"`
	Failed      int           `json:"failed"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// RankRequest is the body of POST /v1/matches/rank.
type RankRequest struct {
	Subject     profile.Profile      `json:"subject"`
	Candidates  []profile.Profile    `json:"candidates"`
	Connections []pairing.Connection `json:"connections"`
	Exclusions  []pairing.Exclusion  `json:"exclusions"`
	Limit       int                  `json:"limit"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func matchListFromResult(res matchinguc.Result) MatchListResponse {
	matches := res.Matches
	if matches == nil {
		matches = []match.Score{}
	}
	return MatchListResponse{
		Matches:     matches,
		Considered:  res.Considered,
		Filtered:    res.Filtered,
		Failed:      res.Failed,
		GeneratedAt: res.GeneratedAt,
	}
}
