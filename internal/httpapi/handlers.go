package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/marcin93w/sonos-alarm/internal/models"
	"github.com/marcin93w/sonos-alarm/internal/store"
)

// Backend 处理器依赖的服务能力（由 service.Service 实现）
type Backend interface {
	AuthURL(state string) string
	AuthenticateWithCode(ctx context.Context, code string) (string, error)
	IsAuthenticated(ctx context.Context, userID string) (bool, error)
	ListAlarms(ctx context.Context, userID string) ([]*models.Alarm, error)
	AlarmConfigs(userID string) (map[string]models.RampConfig, error)
	SaveAlarmConfig(userID, alarmID string, cfg models.RampConfig) error
}

// Handler 浏览器端点处理器
type Handler struct {
	backend  Backend
	sessions *store.SessionStore
	logger   *zap.Logger
}

// NewHandler 创建处理器
func NewHandler(backend Backend, sessions *store.SessionStore, logger *zap.Logger) *Handler {
	return &Handler{
		backend:  backend,
		sessions: sessions,
		logger:   logger,
	}
}

// userIDFromSession 解析会话中的用户；无会话时返回空串
func (h *Handler) userIDFromSession(r *http.Request) string {
	sessionID := sessionIDFromRequest(r)
	if sessionID == "" {
		return ""
	}
	userID, err := h.sessions.GetUserID(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("session lookup failed", zap.Error(err))
		return ""
	}
	return userID
}

// AuthStatus GET /auth/status
func (h *Handler) AuthStatus(w http.ResponseWriter, r *http.Request) {
	userID := h.userIDFromSession(r)
	if userID == "" {
		writeJSON(w, http.StatusOK, map[string]bool{"authenticated": false})
		return
	}

	authenticated, err := h.backend.IsAuthenticated(r.Context(), userID)
	if err != nil {
		h.logger.Error("auth status check failed", zap.String("user_id", userID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"authenticated": authenticated})
}

// AuthStart GET /auth/start — 跳转到授权页
func (h *Handler) AuthStart(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.backend.AuthURL("sonos-alarm"), http.StatusFound)
}

// AuthCallback GET /auth/callback — 授权码换令牌并建立会话
func (h *Handler) AuthCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "code is required"})
		return
	}

	userID, err := h.backend.AuthenticateWithCode(r.Context(), code)
	if err != nil {
		h.logger.Error("auth code exchange failed", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "authentication failed"})
		return
	}

	sessionID, err := h.sessions.Create(r.Context(), userID)
	if err != nil {
		h.logger.Error("session create failed", zap.String("user_id", userID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	setSessionCookie(w, sessionID)
	http.Redirect(w, r, "/", http.StatusFound)
}

// AuthLogout /auth/logout — 删除会话并清 Cookie
func (h *Handler) AuthLogout(w http.ResponseWriter, r *http.Request) {
	if sessionID := sessionIDFromRequest(r); sessionID != "" {
		if err := h.sessions.Delete(r.Context(), sessionID); err != nil {
			h.logger.Error("session delete failed", zap.Error(err))
		}
	}
	clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusFound)
}

// ListAlarms GET /alarms — 强制刷新后返回缓存列表
func (h *Handler) ListAlarms(w http.ResponseWriter, r *http.Request) {
	userID := h.userIDFromSession(r)
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	alarms, err := h.backend.ListAlarms(r.Context(), userID)
	if err != nil {
		h.logger.Error("alarm listing failed", zap.String("user_id", userID), zap.Error(err))
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "failed to load alarms"})
		return
	}
	writeJSON(w, http.StatusOK, alarms)
}

// GetAlarmConfigs GET /alarm-config
func (h *Handler) GetAlarmConfigs(w http.ResponseWriter, r *http.Request) {
	userID := h.userIDFromSession(r)
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	configs, err := h.backend.AlarmConfigs(userID)
	if err != nil {
		h.logger.Error("config listing failed", zap.String("user_id", userID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"configs":  configs,
		"defaults": models.DefaultRampConfig(),
	})
}

// alarmConfigRequest PUT /alarm-config 请求体
type alarmConfigRequest struct {
	AlarmID      string `json:"alarmId"`
	RampEnabled  *bool  `json:"rampEnabled"`
	MaxVolume    *int   `json:"maxVolume"`
	RampDuration *int   `json:"rampDuration"`
}

// PutAlarmConfig PUT /alarm-config
func (h *Handler) PutAlarmConfig(w http.ResponseWriter, r *http.Request) {
	userID := h.userIDFromSession(r)
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req alarmConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.AlarmID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "alarmId is required"})
		return
	}
	if req.RampEnabled == nil || req.MaxVolume == nil || req.RampDuration == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid config values"})
		return
	}

	cfg := models.RampConfig{
		RampEnabled:  *req.RampEnabled,
		MaxVolume:    *req.MaxVolume,
		RampDuration: *req.RampDuration,
	}
	if err := h.backend.SaveAlarmConfig(userID, req.AlarmID, cfg); err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": verr.Error()})
			return
		}
		h.logger.Error("config save failed", zap.String("user_id", userID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
