package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/projecthub/internal/constants"
	"github.com/yukikurage/projecthub/internal/database/databasetest"
	"github.com/yukikurage/projecthub/internal/dto"
	apierrors "github.com/yukikurage/projecthub/internal/errors"
	"github.com/yukikurage/projecthub/internal/repository"
	"github.com/yukikurage/projecthub/internal/services"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testServer struct {
	t      *testing.T
	db     *gorm.DB
	router *gin.Engine
	auth   *services.AuthService
}

func newTestServer(t *testing.T, aiService *services.AIService) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := databasetest.NewDB(t)
	logger := zap.NewNop()

	userRepo := repository.NewUserRepository(db)
	authService := services.NewAuthService(userRepo)
	projectService := services.NewProjectService(repository.NewProjectRepository(db), userRepo,
		services.NewLoggingMediaStore(logger), constants.DefaultSlugMaxAttempts, logger)

	r := gin.New()
	store := cookie.NewStore([]byte("secret"))
	r.Use(sessions.Sessions(constants.SessionCookieName, store))
	RegisterRoutes(r, Handlers{
		Auth:    NewAuthHandler(authService),
		Project: NewProjectHandler(projectService),
		Task:    NewTaskHandler(services.NewTaskService(repository.NewTaskRepository(db), projectService, aiService, logger)),
		Note:    NewNoteHandler(services.NewNoteService(repository.NewNoteRepository(db), projectService)),
		Board:   NewBoardHandler(services.NewBoardService(repository.NewBoardRepository(db), projectService, services.NewLoggingMediaStore(logger), logger)),
	})

	return &testServer{t: t, db: db, router: r, auth: authService}
}

// session is a logged-in client.
type session struct {
	userID  uint64
	cookies []*http.Cookie
}

// signupAndLogin registers username and logs in, returning the session cookies.
func (s *testServer) signupAndLogin(username string) *session {
	s.t.Helper()

	user, err := s.auth.Signup(services.SignupInput{
		Username: username,
		Email:    username + "@example.com",
		FullName: "User " + username,
		Password: "supersecret",
	})
	require.NoError(s.t, err)

	w := s.do(nil, http.MethodPost, "/api/auth/login", map[string]string{
		"identifier": username,
		"password":   "supersecret",
	})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())

	cookies := w.Result().Cookies()
	require.NotEmpty(s.t, cookies, "expected session cookie to be set")
	return &session{userID: user.ID, cookies: cookies}
}

func (s *testServer) do(as *session, method, path string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()

	var reader *bytes.Reader
	if raw, ok := body.(string); ok {
		reader = bytes.NewReader([]byte(raw))
	} else if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if as != nil {
		for _, c := range as.cookies {
			req.AddCookie(c)
		}
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) createProject(as *session, body map[string]interface{}) dto.ProjectDTO {
	s.t.Helper()

	w := s.do(as, http.MethodPost, "/api/projects", body)
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())

	var project dto.ProjectDTO
	decode(s.t, w, &project)
	return project
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func requireAPIError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())

	var apiErr apierrors.APIError
	decode(t, w, &apiErr)
	require.Equal(t, code, apiErr.Code)
}
