package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"pathbuilder-service/internal/adapters/repositories"
	"pathbuilder-service/internal/adapters/routing"
	"pathbuilder-service/internal/api/dto"
	"pathbuilder-service/internal/domain"
	"pathbuilder-service/internal/services"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	router  *gin.Engine
	store   *repositories.MemoryRouteStore
	library *services.RouteLibrary
}

func newTestServer(t *testing.T, calc *services.RouteCalculator) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repositories.NewMemoryRouteStore()
	library := services.NewRouteLibrary(store, nil)
	saver := services.NewRouteSaver(store, library, nil, nil)
	sessions := services.NewDraftSessions(func() *services.Composer {
		return services.NewComposer(calc, saver, nil)
	})
	t.Cleanup(sessions.CloseAll)

	return &testServer{
		router:  NewRouter(Deps{Sessions: sessions, Library: library, SettleTimeout: 2 * time.Second}),
		store:   store,
		library: library,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (s *testServer) newDraft(t *testing.T, mode string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/drafts", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[dto.DraftResponse](t, rec).ID

	if mode != "" {
		rec = s.do(t, http.MethodPut, "/drafts/"+id+"/mode", gin.H{"mode": mode})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	return id
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestRequestIDIsEchoed(t *testing.T) {
	s := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}

func TestDrafts_WaypointRequiresMode(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.newDraft(t, "")

	rec := s.do(t, http.MethodPost, "/drafts/"+id+"/waypoints", gin.H{"latitude": 1, "longitude": 2})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodGet, "/drafts/"+id, nil)
	st := decode[dto.DraftResponse](t, rec).State
	assert.True(t, st.AwaitingModeSelection)
	assert.Empty(t, st.Waypoints)
}

func TestDrafts_RejectsBadInput(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.newDraft(t, "walk")

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"unknown mode", http.MethodPut, "/drafts/" + id + "/mode", gin.H{"mode": "fly"}, http.StatusBadRequest},
		{"missing mode", http.MethodPut, "/drafts/" + id + "/mode", gin.H{}, http.StatusBadRequest},
		{"missing latitude", http.MethodPost, "/drafts/" + id + "/waypoints", gin.H{"longitude": 2}, http.StatusBadRequest},
		{"latitude range", http.MethodPost, "/drafts/" + id + "/waypoints", gin.H{"latitude": 91, "longitude": 2}, http.StatusBadRequest},
		{"longitude range", http.MethodPost, "/drafts/" + id + "/waypoints", gin.H{"latitude": 1, "longitude": -181}, http.StatusBadRequest},
		{"missing name", http.MethodPut, "/drafts/" + id + "/name", gin.H{}, http.StatusBadRequest},
		{"bad draft id", http.MethodGet, "/drafts/nope", nil, http.StatusBadRequest},
		{"unknown draft", http.MethodGet, "/drafts/6f1c2f9e-8a44-4a8e-9d55-1d7f8f0c1a11", nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestDrafts_ComposeUndoRedoAndSave(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.newDraft(t, "walk")
	base := "/drafts/" + id

	rec := s.do(t, http.MethodPost, base+"/manual", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[dto.DraftResponse](t, rec).State.ManualMode)

	s.do(t, http.MethodPost, base+"/waypoints", gin.H{"latitude": 0, "longitude": 0})
	rec = s.do(t, http.MethodPost, base+"/waypoints", gin.H{"latitude": 0, "longitude": 1})
	st := decode[dto.DraftResponse](t, rec).State
	assert.InDelta(t, 69.09, st.DistanceMiles, 0.1)
	assert.True(t, st.CanUndo)

	rec = s.do(t, http.MethodPost, base+"/undo", nil)
	st = decode[dto.DraftResponse](t, rec).State
	assert.Len(t, st.Waypoints, 1)
	assert.True(t, st.CanRedo)

	rec = s.do(t, http.MethodPost, base+"/redo", nil)
	st = decode[dto.DraftResponse](t, rec).State
	assert.Len(t, st.Waypoints, 2)

	// blank name: guard no-op
	rec = s.do(t, http.MethodPost, base+"/save", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[dto.SaveResponse](t, rec).Saved)

	s.do(t, http.MethodPut, base+"/name", gin.H{"name": "Equator"})
	rec = s.do(t, http.MethodPost, base+"/save", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	saved := decode[dto.SaveResponse](t, rec)
	require.NotNil(t, saved.Route)
	assert.Equal(t, "Equator", saved.Route.Name)
	assert.Equal(t, "Hard", saved.Route.Difficulty)
	assert.True(t, saved.State.SaveCompleted)
	assert.Equal(t, "walk", saved.State.Mode)
	assert.Empty(t, saved.State.Waypoints)

	routes, err := s.store.ListRoutes(context.Background())
	require.NoError(t, err)
	require.Len(t, routes, 1)
}

func TestDrafts_LayerAndReset(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.newDraft(t, "drive")
	base := "/drafts/" + id

	rec := s.do(t, http.MethodPost, base+"/layer", nil)
	assert.Equal(t, "satellite", decode[dto.DraftResponse](t, rec).State.Layer)

	s.do(t, http.MethodPost, base+"/waypoints", gin.H{"latitude": 10, "longitude": 10})
	rec = s.do(t, http.MethodPost, base+"/reset", nil)
	st := decode[dto.DraftResponse](t, rec).State
	assert.Equal(t, "satellite", st.Layer)
	assert.True(t, st.AwaitingModeSelection)
	assert.Empty(t, st.Waypoints)

	rec = s.do(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDrafts_RoutedWaypointsSettleBeforeResponse(t *testing.T) {
	calc := services.NewRouteCalculator(routing.NewEchoGateway(10, 1609.34), time.Second, nil)
	s := newTestServer(t, calc)
	id := s.newDraft(t, "walk")
	base := "/drafts/" + id

	s.do(t, http.MethodPost, base+"/waypoints", gin.H{"latitude": 40, "longitude": -75})
	rec := s.do(t, http.MethodPost, base+"/waypoints", gin.H{"latitude": 40.5, "longitude": -75})
	st := decode[dto.DraftResponse](t, rec).State

	assert.False(t, st.IsCalculating)
	assert.InDelta(t, 1.0, st.DistanceMiles, 1e-9)
	assert.InDelta(t, 20, st.EstimatedTimeMinutes, 1)
}

func TestDrafts_EventsStream(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.newDraft(t, "walk")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/drafts/"+id+"/events", nil).WithContext(ctx)
	rec := &streamRecorder{ResponseRecorder: httptest.NewRecorder()}
	s.router.ServeHTTP(rec, req)

	body := rec.Body.String()
	assert.Contains(t, body, "event:state")
	assert.Contains(t, body, `"mode":"walk"`)
}

func seedRoutes(t *testing.T, s *testServer) []int64 {
	t.Helper()
	points := []domain.Waypoint{{Latitude: 40, Longitude: -75}, {Latitude: 40.01, Longitude: -75}}
	var ids []int64
	for _, r := range []domain.RouteRecord{
		{Name: "Park Walk", Mode: domain.ModeWalk, DistanceMiles: 2, ElevationFeet: 50, Difficulty: domain.DifficultyEasy, Waypoints: points, Geometry: points},
		{Name: "Pass Drive", Mode: domain.ModeDrive, DistanceMiles: 30, ElevationFeet: 2000, Difficulty: domain.DifficultyHard, Waypoints: points, Geometry: points},
	} {
		id, err := s.store.InsertRoute(context.Background(), r)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func TestRoutes_ListFilterAndStats(t *testing.T) {
	s := newTestServer(t, nil)
	seedRoutes(t, s)

	rec := s.do(t, http.MethodGet, "/routes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[dto.ListRouteResponse](t, rec)
	require.Len(t, list.Routes, 2)
	assert.Equal(t, "Pass Drive", list.Routes[0].Name)
	assert.Equal(t, "High", list.Routes[0].ElevationRange)

	rec = s.do(t, http.MethodGet, "/routes?mode=walk&difficulty=easy,moderate&elevation=Flat&q=park", nil)
	list = decode[dto.ListRouteResponse](t, rec)
	require.Len(t, list.Routes, 1)
	assert.Equal(t, "Park Walk", list.Routes[0].Name)

	rec = s.do(t, http.MethodGet, "/routes?difficulty=extreme", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/routes/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[services.RouteStats](t, rec)
	assert.Equal(t, 2, st.RouteCount)
	assert.InDelta(t, 2, st.TotalWalkMiles, 1e-9)
	assert.InDelta(t, 30, st.TotalDriveMiles, 1e-9)
	assert.InDelta(t, 1025, st.AverageElevationGain, 1e-9)
}

func TestRoutes_GetExportAndDelete(t *testing.T) {
	s := newTestServer(t, nil)
	ids := seedRoutes(t, s)
	path := "/routes/" + strconv.FormatInt(ids[0], 10)

	rec := s.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Park Walk", decode[dto.RouteResponse](t, rec).Name)

	rec = s.do(t, http.MethodGet, path+"/gpx", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/gpx+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<gpx")

	rec = s.do(t, http.MethodGet, path+"/geojson", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"FeatureCollection"`)

	rec = s.do(t, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(t, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/routes/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodDelete, "/routes", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	list := decode[dto.ListRouteResponse](t, s.do(t, http.MethodGet, "/routes", nil))
	assert.Empty(t, list.Routes)
}

func TestRoutes_EventsStreamChanges(t *testing.T) {
	s := newTestServer(t, nil)
	ids := seedRoutes(t, s)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	go func() {
		time.Sleep(50 * time.Millisecond)
		assert.NoError(t, s.library.Delete(context.Background(), ids[1]))
	}()

	req := httptest.NewRequest(http.MethodGet, "/routes/events?mode=walk,drive", nil).WithContext(ctx)
	rec := &streamRecorder{ResponseRecorder: httptest.NewRecorder()}
	s.router.ServeHTTP(rec, req)

	body := rec.Body.String()
	assert.Equal(t, 2, strings.Count(body, "event:routes"), body)
	assert.Equal(t, 1, strings.Count(body, "Pass Drive"), body)
	assert.Equal(t, 2, strings.Count(body, "Park Walk"), body)
}

func TestRoutes_EventsRejectsBadFilter(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(t, http.MethodGet, "/routes/events?elevation=steep", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// streamRecorder satisfies http.CloseNotifier, which gin's streaming needs.
type streamRecorder struct {
	*httptest.ResponseRecorder
}

func (r *streamRecorder) CloseNotify() <-chan bool {
	return make(chan bool)
}
