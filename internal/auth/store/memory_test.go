package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"appetite/internal/auth/models"
	"appetite/pkg/platform/sentinel"
)

type UserStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *UserStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestUserStoreSuite(t *testing.T) {
	suite.Run(t, new(UserStoreSuite))
}

func (s *UserStoreSuite) TestEmailIsUniqueAndCaseInsensitive() {
	s.Require().NoError(s.store.Create(s.ctx, &models.User{ID: "usr-001", Email: "Agent@Example.com"}))
	s.ErrorIs(s.store.Create(s.ctx, &models.User{ID: "usr-002", Email: "agent@example.com"}), sentinel.ErrConflict)

	found, err := s.store.GetByEmail(s.ctx, "AGENT@example.com")
	s.Require().NoError(err)
	s.Equal("usr-001", found.ID)
}

func (s *UserStoreSuite) TestDeleteFreesEmailButNotID() {
	s.Require().NoError(s.store.Create(s.ctx, &models.User{ID: "usr-001", Email: "a@example.com"}))
	s.Require().NoError(s.store.Create(s.ctx, &models.User{ID: "usr-002", Email: "b@example.com"}))

	s.Require().NoError(s.store.Delete(s.ctx, "usr-002"))
	s.ErrorIs(s.store.Delete(s.ctx, "usr-002"), sentinel.ErrNotFound)
	_, err := s.store.GetByEmail(s.ctx, "b@example.com")
	s.ErrorIs(err, sentinel.ErrNotFound)

	next, err := s.store.NextSequence(s.ctx)
	s.Require().NoError(err)
	s.Equal(3, next)
	s.Require().NoError(s.store.Create(s.ctx, &models.User{ID: "usr-003", Email: "b@example.com"}))

	all, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal("usr-003", all[1].ID)
}
