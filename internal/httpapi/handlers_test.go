package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/marcin93w/sonos-alarm/internal/models"
	"github.com/marcin93w/sonos-alarm/internal/store"
)

// fakeBackend Backend 测试替身
type fakeBackend struct {
	authenticated bool
	alarms        []*models.Alarm
	configs       map[string]models.RampConfig
	savedCfg      *models.RampConfig
	savedAlarmID  string
	authUserID    string
	authErr       error
	listErr       error
}

func (f *fakeBackend) AuthURL(state string) string {
	return "https://api.sonos.com/login/v3/oauth?state=" + state
}

func (f *fakeBackend) AuthenticateWithCode(_ context.Context, code string) (string, error) {
	if f.authErr != nil {
		return "", f.authErr
	}
	return f.authUserID, nil
}

func (f *fakeBackend) IsAuthenticated(_ context.Context, _ string) (bool, error) {
	return f.authenticated, nil
}

func (f *fakeBackend) ListAlarms(_ context.Context, _ string) ([]*models.Alarm, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.alarms, nil
}

func (f *fakeBackend) AlarmConfigs(_ string) (map[string]models.RampConfig, error) {
	return f.configs, nil
}

func (f *fakeBackend) SaveAlarmConfig(_ string, alarmID string, cfg models.RampConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	f.savedAlarmID = alarmID
	f.savedCfg = &cfg
	return nil
}

func setupHandler(t *testing.T, backend *fakeBackend) (*Router, *store.SessionStore) {
	sessions := store.NewSessionStore(store.NewMemoryKV())
	handler := NewHandler(backend, sessions, zap.NewNop())
	router := NewRouter(zap.NewNop())
	router.RegisterRoutes(handler)
	return router, sessions
}

func sessionCookie(t *testing.T, sessions *store.SessionStore, userID string) *http.Cookie {
	sessionID, err := sessions.Create(context.Background(), userID)
	require.NoError(t, err)
	return &http.Cookie{Name: sessionCookieName, Value: sessionID}
}

func TestAuthStatus_NoSession(t *testing.T) {
	router, _ := setupHandler(t, &fakeBackend{authenticated: true})

	req := httptest.NewRequest(http.MethodGet, "/auth/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]bool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body["authenticated"])
}

func TestAuthStatus_WithSession(t *testing.T) {
	router, sessions := setupHandler(t, &fakeBackend{authenticated: true})

	req := httptest.NewRequest(http.MethodGet, "/auth/status", nil)
	req.AddCookie(sessionCookie(t, sessions, "user-1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var body map[string]bool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body["authenticated"])
}

func TestAuthStart_RedirectsToAuthorizeURL(t *testing.T) {
	router, _ := setupHandler(t, &fakeBackend{})

	req := httptest.NewRequest(http.MethodGet, "/auth/start", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "login/v3/oauth")
}

func TestAuthCallback_CreatesSessionAndRedirects(t *testing.T) {
	backend := &fakeBackend{authUserID: "Sonos_HH1"}
	router, sessions := setupHandler(t, backend)

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	// Cookie 必须指向新会话
	var sid string
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == sessionCookieName {
			sid = cookie.Value
			assert.True(t, cookie.HttpOnly)
		}
	}
	require.NotEmpty(t, sid)

	userID, err := sessions.GetUserID(context.Background(), sid)
	require.NoError(t, err)
	assert.Equal(t, "Sonos_HH1", userID)
}

func TestAuthCallback_MissingCode(t *testing.T) {
	router, _ := setupHandler(t, &fakeBackend{})

	req := httptest.NewRequest(http.MethodGet, "/auth/callback", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthLogout_DeletesSession(t *testing.T) {
	router, sessions := setupHandler(t, &fakeBackend{})
	cookie := sessionCookie(t, sessions, "user-1")

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)

	userID, err := sessions.GetUserID(context.Background(), cookie.Value)
	require.NoError(t, err)
	assert.Empty(t, userID)
}

func TestListAlarms_RequiresSession(t *testing.T) {
	router, _ := setupHandler(t, &fakeBackend{})

	req := httptest.NewRequest(http.MethodGet, "/alarms", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListAlarms_ReturnsAlarms(t *testing.T) {
	backend := &fakeBackend{
		alarms: []*models.Alarm{{AlarmID: "1", Enabled: true, Volume: 9}},
	}
	router, sessions := setupHandler(t, backend)

	req := httptest.NewRequest(http.MethodGet, "/alarms", nil)
	req.AddCookie(sessionCookie(t, sessions, "user-1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body []models.Alarm
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "1", body[0].AlarmID)
}

func TestGetAlarmConfigs_IncludesDefaults(t *testing.T) {
	backend := &fakeBackend{
		configs: map[string]models.RampConfig{
			"alarm-1": {RampEnabled: false, MaxVolume: 30, RampDuration: 90},
		},
	}
	router, sessions := setupHandler(t, backend)

	req := httptest.NewRequest(http.MethodGet, "/alarm-config", nil)
	req.AddCookie(sessionCookie(t, sessions, "user-1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Configs  map[string]models.RampConfig `json:"configs"`
		Defaults models.RampConfig            `json:"defaults"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 30, body.Configs["alarm-1"].MaxVolume)
	assert.Equal(t, models.DefaultRampConfig(), body.Defaults)
}

func TestPutAlarmConfig_Saves(t *testing.T) {
	backend := &fakeBackend{}
	router, sessions := setupHandler(t, backend)

	payload := `{"alarmId": "alarm-1", "rampEnabled": true, "maxVolume": 20, "rampDuration": 45}`
	req := httptest.NewRequest(http.MethodPut, "/alarm-config", strings.NewReader(payload))
	req.AddCookie(sessionCookie(t, sessions, "user-1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alarm-1", backend.savedAlarmID)
	require.NotNil(t, backend.savedCfg)
	assert.Equal(t, 20, backend.savedCfg.MaxVolume)
	assert.Equal(t, 45, backend.savedCfg.RampDuration)
}

func TestPutAlarmConfig_Validation(t *testing.T) {
	backend := &fakeBackend{}
	router, sessions := setupHandler(t, backend)
	cookie := sessionCookie(t, sessions, "user-1")

	cases := []string{
		`{"rampEnabled": true, "maxVolume": 20, "rampDuration": 45}`,              // 缺 alarmId
		`{"alarmId": "a", "maxVolume": 20, "rampDuration": 45}`,                   // 缺 rampEnabled
		`{"alarmId": "a", "rampEnabled": true, "maxVolume": 150, "rampDuration": 45}`, // maxVolume 越界
		`{"alarmId": "a", "rampEnabled": true, "maxVolume": 20, "rampDuration": 300}`, // rampDuration 越界
		`not json`,
	}

	for _, payload := range cases {
		req := httptest.NewRequest(http.MethodPut, "/alarm-config", strings.NewReader(payload))
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, "payload=%s", payload)
		assert.Nil(t, backend.savedCfg, "payload=%s", payload)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	router, _ := setupHandler(t, &fakeBackend{})

	req := httptest.NewRequest(http.MethodPost, "/alarms", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
