package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/gameshelf/internal/api"
	"github.com/mcoot/gameshelf/internal/api/apierr"
	"github.com/mcoot/gameshelf/internal/api/response"
	"github.com/mcoot/gameshelf/internal/factory"
	"github.com/mcoot/gameshelf/internal/model"
	"github.com/mcoot/gameshelf/internal/services/account"
	"github.com/mcoot/gameshelf/internal/services/library"
	"github.com/mcoot/gameshelf/internal/services/review"
)

type APISuite struct {
	suite.Suite
	app     *factory.TestApp
	handler http.Handler
	ctx     context.Context
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func (s *APISuite) SetupTest() {
	s.app = factory.NewTestApp()
	s.ctx = context.Background()
	s.handler = api.NewRouter(api.RouterConfig{
		Logger:      s.app.Logger,
		Registry:    s.app.Registry,
		Repos:       s.app.Repos,
		Engine:      s.app.Engine,
		Library:     s.app.Library,
		Reviews:     s.app.Reviews,
		Consistency: s.app.Consistency,
	})

	s.app.MockIdentity.QueueIDs("g1", "u1")
	_, err := s.app.Repos.Games.Create(s.ctx, model.NewGame{Title: "Terraria", Developer: "Re-Logic"})
	s.Require().NoError(err)
	_, err = s.app.Accounts.Register(s.ctx, account.RegisterInput{
		Username: "ann", Email: "ann@example.com", PasswordHash: "hashed", DisplayName: "Ann",
	})
	s.Require().NoError(err)
}

func (s *APISuite) request(method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBuffer(nil))
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func (s *APISuite) decode(rr *httptest.ResponseRecorder, v any) {
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), v), rr.Body.String())
}

func (s *APISuite) errorCode(rr *httptest.ResponseRecorder) string {
	var resp apierr.ErrorResponse
	s.decode(rr, &resp)
	return resp.Error.Code
}

func rating(r int) *int {
	return &r
}

// Basic endpoints

func (s *APISuite) TestHealthCheck() {
	rr := s.request(http.MethodGet, "/api/v1/health")
	s.Equal(http.StatusOK, rr.Code)
	s.JSONEq(`{"status":"ok"}`, rr.Body.String())
}

func (s *APISuite) TestMetricsExposed() {
	s.request(http.MethodGet, "/api/v1/health")

	rr := s.request(http.MethodGet, "/metrics")
	s.Equal(http.StatusOK, rr.Code)
	s.Contains(rr.Body.String(), "gameshelf_http_requests_total")
	s.Contains(rr.Body.String(), "gameshelf_storage_operations_total")
}

func (s *APISuite) TestUnknownRoute() {
	rr := s.request(http.MethodGet, "/api/v1/nothing")
	s.Equal(http.StatusNotFound, rr.Code)
}

// Catalog tests

func (s *APISuite) TestGetGameShowsAggregates() {
	_, err := s.app.Library.AddToList(s.ctx, "u1", "g1", library.EntryInput{
		Status: model.StatusCompleted, Rating: rating(4), HoursPlayed: 30,
	})
	s.Require().NoError(err)

	rr := s.request(http.MethodGet, "/api/v1/games/g1")
	s.Require().Equal(http.StatusOK, rr.Code)

	var resp response.Game
	s.decode(rr, &resp)
	s.Equal("Terraria", resp.Title)
	s.Equal(1, resp.Ratings.Count)
	s.Equal(4.0, resp.Ratings.Average)
	s.Equal(1, resp.Ratings.Distribution[4])
	s.Equal(1, resp.Stats.TotalPlayers)
	s.Equal(100.0, resp.Stats.CompletionRate)
}

func (s *APISuite) TestGetGameNotFound() {
	rr := s.request(http.MethodGet, "/api/v1/games/missing")
	s.Equal(http.StatusNotFound, rr.Code)
	s.Equal(apierr.CodeGameNotFound, s.errorCode(rr))
}

func (s *APISuite) TestUserStats() {
	_, err := s.app.Library.AddToList(s.ctx, "u1", "g1", library.EntryInput{
		Status: model.StatusPlaying, HoursPlayed: 5,
	})
	s.Require().NoError(err)

	rr := s.request(http.MethodGet, "/api/v1/users/u1/stats")
	s.Require().Equal(http.StatusOK, rr.Code)
	s.NotContains(rr.Body.String(), "hashed")
	s.NotContains(rr.Body.String(), "ann@example.com")

	var resp response.UserStats
	s.decode(rr, &resp)
	s.Equal("ann", resp.Username)
	s.Equal(1, resp.Stats.TotalGames)
	s.Equal(1, resp.Stats.CurrentlyPlaying)
	s.Equal(5.0, resp.Stats.TotalHours)
}

func (s *APISuite) TestUserStatsNotFound() {
	rr := s.request(http.MethodGet, "/api/v1/users/missing/stats")
	s.Equal(http.StatusNotFound, rr.Code)
	s.Equal(apierr.CodeUserNotFound, s.errorCode(rr))
}

func (s *APISuite) TestGameReviews() {
	_, err := s.app.Reviews.Create(s.ctx, "u1", "g1", review.CreateInput{
		Rating: 5, Content: "Digging never gets old.", Platform: "PC",
	})
	s.Require().NoError(err)

	rr := s.request(http.MethodGet, "/api/v1/games/g1/reviews?sort=helpful")
	s.Require().Equal(http.StatusOK, rr.Code)

	var resp []response.Review
	s.decode(rr, &resp)
	s.Require().Len(resp, 1)
	s.Equal("u1", resp[0].UserID)
	s.Equal(5, resp[0].Rating)
}

func (s *APISuite) TestGameReviewsRejectsUnknownSort() {
	rr := s.request(http.MethodGet, "/api/v1/games/g1/reviews?sort=random")
	s.Equal(http.StatusBadRequest, rr.Code)
}

func (s *APISuite) TestUserLibrary() {
	_, err := s.app.Library.AddToList(s.ctx, "u1", "g1", library.EntryInput{Status: model.StatusPlanned})
	s.Require().NoError(err)

	rr := s.request(http.MethodGet, "/api/v1/users/u1/library")
	s.Require().Equal(http.StatusOK, rr.Code)
	var resp []response.LibraryEntry
	s.decode(rr, &resp)
	s.Require().Len(resp, 1)
	s.Equal("Terraria", resp[0].Title)

	rr = s.request(http.MethodGet, "/api/v1/users/u1/library?status=completed")
	s.Require().Equal(http.StatusOK, rr.Code)
	s.decode(rr, &resp)
	s.Empty(resp)

	rr = s.request(http.MethodGet, "/api/v1/users/u1/library?status=abandoned")
	s.Equal(http.StatusBadRequest, rr.Code)
}

// Admin tests

func (s *APISuite) TestRecomputeAllRepairsStaleAggregates() {
	_, err := s.app.Library.AddToList(s.ctx, "u1", "g1", library.EntryInput{
		Status: model.StatusCompleted, Rating: rating(3),
	})
	s.Require().NoError(err)
	s.Require().NoError(s.app.Repos.Games.SetAggregates(s.ctx, "g1", model.ZeroRatings(), model.GameStats{}))

	rr := s.request(http.MethodGet, "/api/v1/admin/verify")
	s.Require().Equal(http.StatusOK, rr.Code)
	var verify response.Verify
	s.decode(rr, &verify)
	s.False(verify.OK)

	rr = s.request(http.MethodPost, "/api/v1/admin/recompute")
	s.Require().Equal(http.StatusOK, rr.Code)
	var summary response.RecomputeAll
	s.decode(rr, &summary)
	s.Equal(response.RecomputeAll{Games: 1, Users: 1}, summary)

	rr = s.request(http.MethodGet, "/api/v1/admin/verify")
	s.Require().Equal(http.StatusOK, rr.Code)
	s.decode(rr, &verify)
	s.True(verify.OK)
	s.Equal(1, verify.UserGames)
}

func (s *APISuite) TestRecomputeGame() {
	_, err := s.app.Library.AddToList(s.ctx, "u1", "g1", library.EntryInput{
		Status: model.StatusCompleted, Rating: rating(2),
	})
	s.Require().NoError(err)
	s.Require().NoError(s.app.Repos.Games.SetAggregates(s.ctx, "g1", model.ZeroRatings(), model.GameStats{}))

	rr := s.request(http.MethodPost, "/api/v1/admin/recompute/games/g1")
	s.Require().Equal(http.StatusOK, rr.Code)

	g, err := s.app.Repos.Games.GetByID(s.ctx, "g1")
	s.Require().NoError(err)
	s.Equal(2.0, g.Ratings.Average)
}

func (s *APISuite) TestRecomputeMissingEntities() {
	rr := s.request(http.MethodPost, "/api/v1/admin/recompute/games/missing")
	s.Equal(http.StatusNotFound, rr.Code)

	rr = s.request(http.MethodPost, "/api/v1/admin/recompute/users/missing")
	s.Equal(http.StatusNotFound, rr.Code)
}

func (s *APISuite) TestRecomputeUser() {
	rr := s.request(http.MethodPost, "/api/v1/admin/recompute/users/u1")
	s.Require().Equal(http.StatusOK, rr.Code)
	s.JSONEq(`{"kind":"user","id":"u1"}`, rr.Body.String())
}

func (s *APISuite) TestAdminRequiresPost() {
	rr := s.request(http.MethodGet, "/api/v1/admin/recompute")
	s.Equal(http.StatusMethodNotAllowed, rr.Code)
}

func (s *APISuite) TestStorageFailureIsServiceUnavailable() {
	s.app.Repos.Reload()
	s.app.Memory.FailLoads(errors.New("disk unreadable"))

	rr := s.request(http.MethodGet, "/api/v1/admin/verify")
	s.Equal(http.StatusServiceUnavailable, rr.Code)
	s.Equal(apierr.CodeStorageUnavailable, s.errorCode(rr))

	rr = s.request(http.MethodGet, "/api/v1/games/g1")
	s.Equal(http.StatusServiceUnavailable, rr.Code)
}
