package web_test

import (
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/tournax/internal/model"
)

func seedTournaments(ts *webTestServer) (model.Tournament, model.Tournament) {
	spring := ts.backend.AddTournament(model.Tournament{
		Name:         "Spring Open",
		StartDate:    time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		Location:     "Lisbon",
		MinEloRating: 1000,
		MaxEloRating: 2000,
		Format:       model.FormatSwiss,
	})
	autumn := ts.backend.AddTournament(model.Tournament{
		Name:     "Autumn Cup",
		Location: "Porto",
		Format:   model.FormatDoubleElimination,
	})
	return spring, autumn
}

func TestDashboard(t *testing.T) {
	ts := newWebTestServer(t)
	seedTournaments(ts)
	ts.login("alice", "secret")

	rr := ts.get("/dashboard")
	require.Equal(t, http.StatusOK, rr.Code)

	doc := parseHTML(rr.Body)
	assertContainsElement(t, doc, "#dashboard")
	assertContainsText(t, doc, ".tournament-count", "2")
	// Players cannot create tournaments
	assertNotContainsElement(t, doc, "#create-tournament")
}

func TestDashboardForAdmin(t *testing.T) {
	ts := newWebTestServer(t)
	ts.login("root", "hunter2")

	rr := ts.get("/dashboard")
	require.Equal(t, http.StatusOK, rr.Code)

	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, "nav .role", "Admin")
	assertContainsElement(t, doc, "#create-tournament")
}

func TestTournamentList(t *testing.T) {
	ts := newWebTestServer(t)
	seedTournaments(ts)
	ts.login("alice", "secret")

	rr := ts.get("/dashboard/list/tournaments")
	require.Equal(t, http.StatusOK, rr.Code)

	doc := parseHTML(rr.Body)
	assert.Equal(t, 2, doc.Find(".tournament-row").Length())
	assertContainsText(t, doc, ".tournament-table", "Spring Open")
	assertContainsText(t, doc, ".tournament-table", "Autumn Cup")
}

func TestTournamentListEmpty(t *testing.T) {
	ts := newWebTestServer(t)
	ts.login("alice", "secret")

	rr := ts.get("/dashboard/list/tournaments")
	require.Equal(t, http.StatusOK, rr.Code)

	doc := parseHTML(rr.Body)
	assertContainsElement(t, doc, ".empty")
	assertNotContainsElement(t, doc, ".tournament-row")
}

func TestTournamentView(t *testing.T) {
	ts := newWebTestServer(t)
	spring, _ := seedTournaments(ts)
	ts.login("alice", "secret")

	rr := ts.get(fmt.Sprintf("/dashboard/list/tournaments/%d", spring.ID))
	require.Equal(t, http.StatusOK, rr.Code)

	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, ".tournament-name", "Spring Open")
	assertContainsText(t, doc, ".location", "Lisbon")
	assertContainsText(t, doc, ".format", "SWISS")
	assertNotContainsElement(t, doc, "#edit-tournament")
}

func TestTournamentNotFound(t *testing.T) {
	ts := newWebTestServer(t)
	ts.login("alice", "secret")

	rr := ts.get("/dashboard/list/tournaments/999")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	doc := parseHTML(rr.Body)
	assertContainsElement(t, doc, "#error")
	// A missing resource does not end the session
	assert.True(t, ts.cookies.hasSession())
}

func TestPlayerCannotManageTournaments(t *testing.T) {
	ts := newWebTestServer(t)
	spring, _ := seedTournaments(ts)
	ts.login("alice", "secret")

	rr := ts.get("/dashboard/list/tournaments/new")
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = ts.post("/dashboard/list/tournaments", url.Values{"name": {"Sneaky"}, "location": {"Nowhere"}, "format": {"SWISS"}})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = ts.post(fmt.Sprintf("/dashboard/list/tournaments/%d", spring.ID), url.Values{"name": {"Renamed"}, "location": {"Lisbon"}})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	// Nothing was written to the backend
	for _, req := range ts.backend.Requests() {
		if req.Path == "/api/auth/login" {
			continue
		}
		assert.Equal(t, http.MethodGet, req.Method, "unexpected write to %s", req.Path)
	}
}

func TestAdminCreatesTournament(t *testing.T) {
	ts := newWebTestServer(t)
	ts.login("root", "hunter2")

	rr := ts.get("/dashboard/list/tournaments/new")
	require.Equal(t, http.StatusOK, rr.Code)
	doc := parseHTML(rr.Body)
	assertContainsElement(t, doc, "#tournament-form")

	form := url.Values{
		"name":         {"Winter Classic"},
		"location":     {"Oslo"},
		"startDate":    {"2026-12-01"},
		"minEloRating": {"1200"},
		"maxEloRating": {"2400"},
		"format":       {"HYBRID"},
	}
	rr = ts.post("/dashboard/list/tournaments", form)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Regexp(t, `^/dashboard/list/tournaments/\d+$`, rr.Header().Get("Location"))

	rr = ts.followRedirect(rr)
	require.Equal(t, http.StatusOK, rr.Code)
	doc = parseHTML(rr.Body)
	assertContainsText(t, doc, ".tournament-name", "Winter Classic")
	assertContainsText(t, doc, ".format", "HYBRID")
	assertContainsText(t, doc, ".flash", "Tournament created")
	assertContainsElement(t, doc, "#edit-tournament")
}

func TestCreateTournamentValidation(t *testing.T) {
	ts := newWebTestServer(t)
	ts.login("root", "hunter2")

	tests := []struct {
		name    string
		form    url.Values
		message string
	}{
		{"missing name", url.Values{"location": {"Oslo"}, "format": {"SWISS"}}, "required"},
		{"bad date", url.Values{"name": {"X"}, "location": {"Oslo"}, "startDate": {"soon"}, "format": {"SWISS"}}, "date"},
		{"bad elo", url.Values{"name": {"X"}, "location": {"Oslo"}, "minEloRating": {"high"}, "format": {"SWISS"}}, "number"},
		{"bad format", url.Values{"name": {"X"}, "location": {"Oslo"}, "format": {"ROUND_ROBIN"}}, "format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.post("/dashboard/list/tournaments", tt.form)
			assert.Equal(t, http.StatusOK, rr.Code)
			doc := parseHTML(rr.Body)
			assertContainsText(t, doc, ".form-error", tt.message)
		})
	}
}

func TestAdminUpdatesTournament(t *testing.T) {
	ts := newWebTestServer(t)
	spring, _ := seedTournaments(ts)
	ts.login("root", "hunter2")

	path := fmt.Sprintf("/dashboard/list/tournaments/%d", spring.ID)
	rr := ts.get(path + "/edit")
	require.Equal(t, http.StatusOK, rr.Code)
	doc := parseHTML(rr.Body)
	name, _ := doc.Find("input[name='name']").Attr("value")
	assert.Equal(t, "Spring Open", name)

	rr = ts.post(path, url.Values{"name": {"Spring Open 2026"}, "location": {"Coimbra"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, path, rr.Header().Get("Location"))

	rr = ts.followRedirect(rr)
	doc = parseHTML(rr.Body)
	assertContainsText(t, doc, ".tournament-name", "Spring Open 2026")
	assertContainsText(t, doc, ".location", "Coimbra")
}

func seedMatch(ts *webTestServer, tournament model.Tournament) model.Match {
	return ts.backend.AddMatch(model.Match{
		Player1:    model.PlayerRef{ID: 101, Username: "alice"},
		Player2:    model.PlayerRef{ID: 102, Username: "root"},
		Tournament: model.TournamentRef{ID: tournament.ID, Name: tournament.Name},
		Status:     model.MatchScheduled,
	})
}

func TestMatchView(t *testing.T) {
	ts := newWebTestServer(t)
	spring, _ := seedTournaments(ts)
	match := seedMatch(ts, spring)
	ts.login("alice", "secret")

	rr := ts.get(fmt.Sprintf("/dashboard/list/matches/%d", match.ID))
	require.Equal(t, http.StatusOK, rr.Code)

	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, "#match h1", "alice vs root")
	assertContainsText(t, doc, ".status", "SCHEDULED")
	assertContainsText(t, doc, ".score", "Undecided")
	assertNotContainsElement(t, doc, "#score-form")

	rr = ts.post(fmt.Sprintf("/dashboard/list/matches/%d/score", match.ID), url.Values{"player1Score": {"3"}})
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestAdminRecordsScore(t *testing.T) {
	ts := newWebTestServer(t)
	spring, _ := seedTournaments(ts)
	match := seedMatch(ts, spring)
	ts.login("root", "hunter2")

	path := fmt.Sprintf("/dashboard/list/matches/%d", match.ID)
	rr := ts.get(path)
	require.Equal(t, http.StatusOK, rr.Code)
	assertContainsElement(t, parseHTML(rr.Body), "#score-form")

	rr = ts.post(path+"/score", url.Values{"player1Score": {"3"}, "player2Score": {"1"}, "koByPlayer1": {"true"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, path, rr.Header().Get("Location"))

	stored, ok := ts.backend.Match(match.ID)
	require.True(t, ok)
	assert.Equal(t, model.MatchCompleted, stored.Status)
	assert.Equal(t, 3, stored.Player1Score)
	assert.Equal(t, 1, stored.Player2Score)

	rr = ts.followRedirect(rr)
	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, ".score", "3 : 1")
	assertContainsText(t, doc, ".flash", "Result recorded")
}

func TestScoreRejectsNonNumeric(t *testing.T) {
	ts := newWebTestServer(t)
	spring, _ := seedTournaments(ts)
	match := seedMatch(ts, spring)
	ts.login("root", "hunter2")

	rr := ts.post(fmt.Sprintf("/dashboard/list/matches/%d/score", match.ID), url.Values{"player1Score": {"three"}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assertContainsText(t, parseHTML(rr.Body), ".error-message", "player1Score")
}

func TestProfile(t *testing.T) {
	ts := newWebTestServer(t)
	spring, _ := seedTournaments(ts)
	seedMatch(ts, spring)
	ts.login("alice", "secret")

	rr := ts.get("/dashboard/profile")
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/dashboard/list/users/101", rr.Header().Get("Location"))

	rr = ts.followRedirect(rr)
	require.Equal(t, http.StatusOK, rr.Code)

	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, ".player-name", "alice")
	assertContainsText(t, doc, ".email", "alice@example.com")
	assertContainsText(t, doc, ".user-type", "Player")
	assertContainsText(t, doc, ".kos", "3")
	assert.Equal(t, 1, doc.Find(".elo-record").Length())
	assert.Equal(t, 1, doc.Find(".match-row").Length())
}
