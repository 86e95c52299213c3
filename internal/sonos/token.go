package sonos

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/marcin93w/sonos-alarm/internal/models"
	"github.com/marcin93w/sonos-alarm/internal/store"
)

// 访问令牌过期安全边距：临近过期的令牌提前刷新
const expiryMargin = 30 * time.Second

const tokenEndpointPath = "/login/v3/oauth/access"

// TokenState 令牌生命周期状态
type TokenState string

const (
	StateUnauthenticated TokenState = "unauthenticated"
	StateValid           TokenState = "valid"
	StateExpiring        TokenState = "expiring"
	StateRefreshing      TokenState = "refreshing"
	StateRevoked         TokenState = "revoked"
)

// tokenResponse OAuth 令牌端点响应
type tokenResponse struct {
	AccessToken     string `json:"access_token"`
	RefreshToken    string `json:"refresh_token"`
	RefreshTokenAlt string `json:"refreshToken"`
	ExpiresIn       int    `json:"expires_in"`
	TokenType       string `json:"token_type"`
	Scope           string `json:"scope"`
	ErrorCode       string `json:"error"`
}

// TokenLifecycle 管理单个用户的令牌对：按需刷新、401 强制刷新、永久吊销时自我失效
type TokenLifecycle struct {
	oauthBase    string
	clientID     string
	clientSecret string
	tokenStore   *store.TokenStore
	http         *resty.Client
	logger       *zap.Logger

	mu    sync.Mutex
	state TokenState
	now   func() time.Time
}

// NewTokenLifecycle 创建令牌生命周期管理器
func NewTokenLifecycle(
	oauthBase, clientID, clientSecret string,
	tokenStore *store.TokenStore,
	httpClient *resty.Client,
	logger *zap.Logger,
) *TokenLifecycle {
	return &TokenLifecycle{
		oauthBase:    oauthBase,
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenStore:   tokenStore,
		http:         httpClient,
		logger:       logger,
		state:        StateUnauthenticated,
		now:          time.Now,
	}
}

// State 当前生命周期状态
func (l *TokenLifecycle) State() TokenState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// GetValidAccessToken 返回可用的访问令牌
// 未临近过期时直接返回缓存令牌（无 I/O 到上游）；
// 否则执行一次刷新；刷新被永久拒绝时清除令牌并返回 ErrTokenRevoked
func (l *TokenLifecycle) GetValidAccessToken(ctx context.Context) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	tokenSet, err := l.tokenStore.GetTokenSet(ctx)
	if err != nil {
		return "", err
	}
	if tokenSet == nil {
		l.state = StateUnauthenticated
		return "", ErrNotAuthenticated
	}

	if tokenSet.Valid(l.now(), expiryMargin) {
		l.state = StateValid
		return tokenSet.AccessToken, nil
	}

	l.state = StateExpiring
	refreshed, err := l.refreshLocked(ctx, tokenSet)
	if err != nil {
		return "", err
	}
	return refreshed.AccessToken, nil
}

// ForceRefresh 无视过期时间强制刷新一次（401 处理路径）
func (l *TokenLifecycle) ForceRefresh(ctx context.Context) (*models.TokenSet, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	tokenSet, err := l.tokenStore.GetTokenSet(ctx)
	if err != nil {
		return nil, err
	}
	return l.refreshLocked(ctx, tokenSet)
}

// ExchangeAuthCode 授权码换取令牌（OAuth 回调时调用）
func (l *TokenLifecycle) ExchangeAuthCode(ctx context.Context, code, redirectURI string) (*models.TokenSet, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	form := map[string]string{
		"grant_type":   "authorization_code",
		"code":         code,
		"redirect_uri": redirectURI,
	}
	tokenSet, err := l.requestToken(ctx, form, "")
	if err != nil {
		return nil, err
	}
	if err := l.tokenStore.SaveTokenSet(ctx, tokenSet); err != nil {
		return nil, err
	}
	l.state = StateValid
	return tokenSet, nil
}

// IsAuthenticated 是否持有可刷新的令牌对
func (l *TokenLifecycle) IsAuthenticated(ctx context.Context) (bool, error) {
	tokenSet, err := l.tokenStore.GetTokenSet(ctx)
	if err != nil {
		return false, err
	}
	return tokenSet != nil && tokenSet.RefreshToken != "", nil
}

// refreshLocked 刷新令牌协议（调用方必须持锁）
// 没有 refresh token 的令牌对无法刷新，强制重新认证
func (l *TokenLifecycle) refreshLocked(ctx context.Context, existing *models.TokenSet) (*models.TokenSet, error) {
	if existing == nil || existing.RefreshToken == "" {
		l.state = StateUnauthenticated
		return nil, ErrNotAuthenticated
	}

	l.state = StateRefreshing
	form := map[string]string{
		"grant_type":    "refresh_token",
		"refresh_token": existing.RefreshToken,
	}
	tokenSet, err := l.requestToken(ctx, form, existing.RefreshToken)
	if err != nil {
		if err == ErrTokenRevoked {
			// 永久拒绝：清除存储并进入终态
			if clearErr := l.tokenStore.Clear(ctx); clearErr != nil {
				l.logger.Error("failed to purge revoked token set", zap.Error(clearErr))
			}
			l.state = StateRevoked
			l.logger.Warn("refresh token revoked, re-authentication required")
		}
		return nil, err
	}

	if err := l.tokenStore.SaveTokenSet(ctx, tokenSet); err != nil {
		return nil, err
	}
	l.state = StateValid
	l.logger.Debug("access token refreshed",
		zap.Time("expires_at", tokenSet.ExpiresAt),
	)
	return tokenSet, nil
}

// requestToken 调用令牌端点（HTTP Basic 客户端凭证）
func (l *TokenLifecycle) requestToken(ctx context.Context, form map[string]string, fallbackRefreshToken string) (*models.TokenSet, error) {
	var body tokenResponse
	resp, err := l.http.R().
		SetContext(ctx).
		SetBasicAuth(l.clientID, l.clientSecret).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetFormData(form).
		SetResult(&body).
		SetError(&body).
		Post(l.oauthBase + tokenEndpointPath)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}

	if resp.IsError() {
		if body.ErrorCode == "invalid_grant" {
			return nil, ErrTokenRevoked
		}
		return nil, &UpstreamError{Op: "requestToken", Status: resp.StatusCode(), Body: resp.String()}
	}

	refreshToken := body.RefreshToken
	if refreshToken == "" {
		refreshToken = body.RefreshTokenAlt
	}
	if refreshToken == "" {
		// 上游刷新响应可能省略 refresh_token，沿用旧值
		refreshToken = fallbackRefreshToken
	}

	return &models.TokenSet{
		AccessToken:  body.AccessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    l.now().Add(time.Duration(body.ExpiresIn) * time.Second),
		TokenType:    body.TokenType,
		Scope:        body.Scope,
	}, nil
}
