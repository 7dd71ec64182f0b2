package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand/v2"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArowuTest/class-picker/internal/auth"
	"github.com/ArowuTest/class-picker/internal/config"
	"github.com/ArowuTest/class-picker/internal/events"
	"github.com/ArowuTest/class-picker/internal/models"
	"github.com/ArowuTest/class-picker/internal/picker"
	"github.com/ArowuTest/class-picker/internal/store"
)

// streamRecorder adds the CloseNotify that gin's c.Stream needs.
type streamRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func newStreamRecorder() *streamRecorder {
	return &streamRecorder{ResponseRecorder: httptest.NewRecorder(), closed: make(chan bool, 1)}
}

func (r *streamRecorder) CloseNotify() <-chan bool {
	return r.closed
}

type testServer struct {
	router *gin.Engine
	store  *store.GormStore
	hub    *events.Hub
	h      *Handler
	token  string
}

func setupServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := config.InitDB(&config.AppConfig{
		DBDriver: config.DriverSQLite,
		DBPath:   filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, models.Migrate(db))

	auth.Init("test-secret")
	st := store.New(db)
	hub := events.NewHub()
	svc := picker.NewService(st,
		picker.WithSource(rand.New(rand.NewPCG(1, 2))),
		picker.WithPublisher(hub),
	)
	h := New(st, svc, hub)
	require.NoError(t, h.EnsureAdmin(context.Background(), "teacher", "secret123"))

	r := gin.New()
	h.Register(r.Group("/api/v1"))

	admin, err := st.GetAdminByUsername(context.Background(), "teacher")
	require.NoError(t, err)
	token, err := auth.GenerateJWT(admin.ID.String(), admin.Username)
	require.NoError(t, err)

	return &testServer{router: r, store: st, hub: hub, h: h, token: token}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/api/v1"+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func (s *testServer) seed(t *testing.T, names ...string) (uuid.UUID, []models.Student) {
	t.Helper()
	w := s.do(t, http.MethodPost, "/classrooms", gin.H{"name": "5B"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var room models.Classroom
	decode(t, w, &room)

	students := make([]models.Student, 0, len(names))
	for _, n := range names {
		w := s.do(t, http.MethodPost, "/classrooms/"+room.ID.String()+"/students", gin.H{"name": n})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var st models.Student
		decode(t, w, &st)
		students = append(students, st)
	}
	return room.ID, students
}

func TestHealthIsPublic(t *testing.T) {
	s := setupServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok"`)
}

func TestRoutesRequireToken(t *testing.T) {
	s := setupServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/classrooms", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/classrooms", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/classrooms?token="+s.token, nil)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoginAndChangePassword(t *testing.T) {
	s := setupServer(t)

	w := s.do(t, http.MethodPost, "/auth/login", gin.H{"username": "teacher", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/auth/login", gin.H{"username": "teacher", "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var login struct {
		Token string `json:"token"`
	}
	decode(t, w, &login)
	claims, err := auth.ParseAndVerify(login.Token)
	require.NoError(t, err)
	assert.Equal(t, "teacher", claims.Username)

	w = s.do(t, http.MethodPut, "/me/password", gin.H{"current_password": "nope", "new_password": "another1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPut, "/me/password", gin.H{"current_password": "secret123", "new_password": "short"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, "/me/password", gin.H{"current_password": "secret123", "new_password": "another1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/auth/login", gin.H{"username": "teacher", "password": "another1"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestEnsureAdminKeepsExistingPassword(t *testing.T) {
	s := setupServer(t)
	require.NoError(t, s.h.EnsureAdmin(context.Background(), "teacher", "different1"))

	w := s.do(t, http.MethodPost, "/auth/login", gin.H{"username": "teacher", "password": "secret123"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Error(t, s.h.EnsureAdmin(context.Background(), "second", "abc"))
}

func TestClassroomLifecycle(t *testing.T) {
	s := setupServer(t)
	roomID, students := s.seed(t, "Ada", "Ben")

	w := s.do(t, http.MethodGet, "/classrooms/"+roomID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var room models.Classroom
	decode(t, w, &room)
	require.Len(t, room.Students, 2)
	require.NotNil(t, room.Students[0].Probability)
	assert.InDelta(t, 0.5, *room.Students[0].Probability, 1e-9)

	w = s.do(t, http.MethodGet, "/classrooms", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var rooms []models.Classroom
	decode(t, w, &rooms)
	assert.Len(t, rooms, 1)

	w = s.do(t, http.MethodPut, "/students/"+students[0].ID.String(), gin.H{"weight": 3, "name": "Ada L."})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/classrooms/"+roomID.String()+"/students", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed []models.Student
	decode(t, w, &listed)
	require.Len(t, listed, 2)
	assert.Equal(t, "Ada L.", listed[0].Name)
	assert.InDelta(t, 0.75, *listed[0].Probability, 1e-9)

	w = s.do(t, http.MethodPut, "/students/"+students[0].ID.String(), gin.H{"weight": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodDelete, "/students/"+students[1].ID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodDelete, "/students/"+students[1].ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodDelete, "/classrooms/"+roomID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodGet, "/classrooms/"+roomID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/classrooms/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDrawConfirmAndReset(t *testing.T) {
	s := setupServer(t)
	roomID, students := s.seed(t, "Ada", "Ben", "Cleo")
	base := "/classrooms/" + roomID.String()

	w := s.do(t, http.MethodPost, base+"/draw", gin.H{"count": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var proposal struct {
		Students []models.Student `json:"students"`
	}
	decode(t, w, &proposal)
	require.Len(t, proposal.Students, 2)
	assert.NotEqual(t, proposal.Students[0].ID, proposal.Students[1].ID)

	w = s.do(t, http.MethodPost, base+"/draw", gin.H{"count": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(t, http.MethodPost, base+"/draw", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code, "count is required")
	w = s.do(t, http.MethodPost, base+"/draw", gin.H{"num_students": 2})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(t, http.MethodPost, base+"/draw", gin.H{"count": 0})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"students":[]}`, w.Body.String())
	w = s.do(t, http.MethodPost, base+"/draw", gin.H{"count": 1, "student_ids": []uuid.UUID{uuid.New()}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(t, http.MethodPost, "/classrooms/"+uuid.New().String()+"/draw", gin.H{"count": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// proposing leaves weights alone
	w = s.do(t, http.MethodGet, base+"/drawing-history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	ids := []uuid.UUID{proposal.Students[0].ID, proposal.Students[1].ID}
	w = s.do(t, http.MethodPost, base+"/draw/confirm", gin.H{"student_ids": ids})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var confirmed struct {
		Students []models.Student `json:"students"`
	}
	decode(t, w, &confirmed)
	require.Len(t, confirmed.Students, 2)
	for _, st := range confirmed.Students {
		assert.Equal(t, 1, st.DrawCount)
		assert.InDelta(t, 0.25, st.Weight, 1e-12)
	}

	w = s.do(t, http.MethodPost, base+"/draw/confirm", gin.H{"student_ids": []uuid.UUID{students[0].ID, uuid.New()}})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, base+"/draw/confirm", gin.H{"student_ids": []uuid.UUID{}})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, base+"/drawing-history?limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history []models.DrawHistory
	decode(t, w, &history)
	require.Len(t, history, 1, "failed and empty confirms leave no history")
	assert.Len(t, history[0].DrawnStudents, 2)

	w = s.do(t, http.MethodGet, base+"/drawing-history?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, base+"/reset-weights", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, base+"/students", nil)
	var listed []models.Student
	decode(t, w, &listed)
	for _, st := range listed {
		assert.Equal(t, 1.0, st.Weight)
		assert.Equal(t, 0, st.DrawCount)
	}
	w = s.do(t, http.MethodGet, base+"/drawing-history", nil)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestGroupDraw(t *testing.T) {
	s := setupServer(t)
	roomID, students := s.seed(t, "Ada", "Ben", "Cleo")
	otherID, _ := s.seed(t, "Zoe")

	w := s.do(t, http.MethodPost, "/classrooms/"+roomID.String()+"/groups",
		gin.H{"name": "Table 1", "student_ids": []uuid.UUID{students[0].ID}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var group models.Group
	decode(t, w, &group)
	assert.Len(t, group.Students, 1)

	w = s.do(t, http.MethodPost, "/groups/"+group.ID.String()+"/students/"+students[2].ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/classrooms/"+roomID.String()+"/draw",
		gin.H{"count": 5, "group_id": group.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var proposal struct {
		Students []models.Student `json:"students"`
	}
	decode(t, w, &proposal)
	require.Len(t, proposal.Students, 2)
	for _, st := range proposal.Students {
		assert.NotEqual(t, students[1].ID, st.ID)
	}

	w = s.do(t, http.MethodPost, "/classrooms/"+otherID.String()+"/draw",
		gin.H{"count": 1, "group_id": group.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodDelete, "/groups/"+group.ID.String()+"/students/"+students[0].ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodDelete, "/groups/"+group.ID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestImportStudentsCSV(t *testing.T) {
	s := setupServer(t)
	roomID, _ := s.seed(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "students.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("name,weight\nAda,\nBen,0.25\n,1\nCleo,heavy\nDan,-2\nEve,2\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/classrooms/"+roomID.String()+"/students/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Imported int          `json:"imported"`
		Skipped  []skippedRow `json:"skipped"`
	}
	decode(t, w, &resp)
	assert.Equal(t, 3, resp.Imported)
	require.Len(t, resp.Skipped, 3)
	assert.Equal(t, 4, resp.Skipped[0].Line)
	assert.Equal(t, 5, resp.Skipped[1].Line)
	assert.Equal(t, 6, resp.Skipped[2].Line)

	w = s.do(t, http.MethodGet, "/classrooms/"+roomID.String()+"/students", nil)
	var listed []models.Student
	decode(t, w, &listed)
	require.Len(t, listed, 3)
	assert.Equal(t, "Ada", listed[0].Name)
	assert.Equal(t, 1.0, listed[0].Weight)
	assert.Equal(t, 0.25, listed[1].Weight)
}

func TestSettings(t *testing.T) {
	s := setupServer(t)

	w := s.do(t, http.MethodGet, "/settings/"+models.SettingNumSlotMachines, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPut, "/settings", gin.H{"key": models.SettingNumSlotMachines, "value": "zero"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, "/settings", gin.H{"key": models.SettingNumSlotMachines, "value": "5"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/settings/"+models.SettingNumSlotMachines, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var setting models.Setting
	decode(t, w, &setting)
	assert.Equal(t, "5", setting.Value)
}

func TestStreamEvents(t *testing.T) {
	s := setupServer(t)
	roomID, _ := s.seed(t, "Ada")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/classrooms/"+roomID.String()+"/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer "+s.token)
	w := newStreamRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.router.ServeHTTP(w, req)
	}()

	require.Eventually(t, func() bool { return s.hub.Subscribers(roomID) == 1 }, 2*time.Second, 10*time.Millisecond)
	s.hub.Publish(events.Event{Type: events.TypeClassroomReset, ClassroomID: roomID})
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not stop after the client went away")
	}
	assert.True(t, strings.Contains(w.Body.String(), "event:"+events.TypeClassroomReset), w.Body.String())
	assert.Equal(t, 0, s.hub.Subscribers(roomID))
}
