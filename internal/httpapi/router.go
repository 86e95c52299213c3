package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

// NewRouter 创建路由器
func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterRoutes 注册浏览器端点
func (r *Router) RegisterRoutes(h *Handler) {
	r.Handle("/auth/status", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.AuthStatus(w, req)
	})

	r.Handle("/auth/start", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.AuthStart(w, req)
	})

	r.Handle("/auth/callback", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.AuthCallback(w, req)
	})

	// 登出兼容 GET（浏览器直接跳转）与 POST
	r.Handle("/auth/logout", h.AuthLogout)

	r.Handle("/alarms", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.ListAlarms(w, req)
	})

	r.Handle("/alarm-config", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			h.GetAlarmConfigs(w, req)
		case http.MethodPut:
			h.PutAlarmConfig(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}
