//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"appetite/internal/checker/models"
	"appetite/internal/checker/store"
	"appetite/pkg/platform/sentinel"
	"appetite/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "submissions"))
}

func (s *PostgresStoreSuite) TestAppendAndLatest() {
	ctx := context.Background()
	at := time.Now().UTC().Truncate(time.Microsecond)
	first := &models.Submission{ID: "sub-100", NaicsCode: "722511", Location: models.Location{State: "CA", PostalCode: "94016"},
		Decision: models.DecisionEligible, Confidence: 0.9, Reason: "r1", MatchedRule: "Restaurant_FoodService_CA_001", EvaluatedAt: at}
	second := *first
	second.Decision = models.DecisionRestricted
	second.Reason = "r2"

	s.Require().NoError(s.store.Append(ctx, first))
	s.Require().NoError(s.store.Append(ctx, &second))

	got, err := s.store.GetByID(ctx, "sub-100")
	s.Require().NoError(err)
	s.Equal(models.DecisionRestricted, got.Decision)
	s.Equal("r2", got.Reason)
	s.Equal("94016", got.Location.PostalCode)
	s.True(at.Equal(got.EvaluatedAt))

	n, err := s.store.Count(ctx)
	s.Require().NoError(err)
	s.Equal(2, n)

	_, err = s.store.GetByID(ctx, "sub-404")
	s.ErrorIs(err, sentinel.ErrNotFound)
}
