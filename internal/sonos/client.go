package sonos

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/marcin93w/sonos-alarm/internal/models"
)

const authorizePath = "/login/v3/oauth"

// Client Sonos Control API 的类型化门面
// 所有请求经由 TokenLifecycle 附带 Bearer 令牌，401 时强制刷新并重试一次
type Client struct {
	oauthBase string
	apiBase   string
	clientID  string
	tokens    *TokenLifecycle
	http      *resty.Client
	logger    *zap.Logger
}

// NewClient 创建 API 客户端
func NewClient(
	oauthBase, apiBase, clientID string,
	tokens *TokenLifecycle,
	httpClient *resty.Client,
	logger *zap.Logger,
) *Client {
	return &Client{
		oauthBase: oauthBase,
		apiBase:   apiBase,
		clientID:  clientID,
		tokens:    tokens,
		http:      httpClient,
		logger:    logger,
	}
}

// Tokens 暴露底层令牌生命周期（授权码交换与认证状态查询用）
func (c *Client) Tokens() *TokenLifecycle {
	return c.tokens
}

// AuthURL 构造授权页跳转地址
func (c *Client) AuthURL(state, redirectURI string) string {
	params := url.Values{}
	params.Set("client_id", c.clientID)
	params.Set("response_type", "code")
	params.Set("scope", "playback-control-all")
	params.Set("state", state)
	params.Set("redirect_uri", redirectURI)
	return c.oauthBase + authorizePath + "?" + params.Encode()
}

// GetHouseholds 列出账号下的家庭
func (c *Client) GetHouseholds(ctx context.Context) ([]models.Household, error) {
	resp, err := c.authedRequest(ctx, http.MethodGet, c.apiBase+"/households", nil)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, &UpstreamError{Op: "getHouseholds", Status: resp.StatusCode(), Body: resp.String()}
	}

	var body struct {
		Households []models.Household `json:"households"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("getHouseholds: failed to decode response: %w", err)
	}
	return body.Households, nil
}

// GetGroups 列出家庭内的播放分组
func (c *Client) GetGroups(ctx context.Context, householdID string) ([]models.Group, error) {
	endpoint := fmt.Sprintf("%s/households/%s/groups", c.apiBase, householdID)
	resp, err := c.authedRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, &UpstreamError{Op: "getGroups", Status: resp.StatusCode(), Body: resp.String()}
	}

	var body struct {
		Groups []models.Group `json:"groups"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("getGroups: failed to decode response: %w", err)
	}
	return body.Groups, nil
}

// GetAlarms 列出家庭内的报警
// 上游不同固件的响应形态不一致：alarms / items / 裸数组 都要兼容
func (c *Client) GetAlarms(ctx context.Context, householdID string) ([]models.SonosAlarm, error) {
	endpoint := fmt.Sprintf("%s/households/%s/alarms", c.apiBase, householdID)
	resp, err := c.authedRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, &UpstreamError{Op: "getAlarms", Status: resp.StatusCode(), Body: resp.String()}
	}

	return parseAlarmsPayload(resp.Body())
}

// SetVolume 设置分组音量（percent ∈ [0,100]，越界在任何网络调用前拒绝）
func (c *Client) SetVolume(ctx context.Context, groupID string, percent int) error {
	if percent < 0 || percent > 100 {
		return &models.ValidationError{Field: "volume", Reason: "must be between 0 and 100"}
	}

	endpoint := fmt.Sprintf("%s/groups/%s/groupVolume", c.apiBase, groupID)
	payload := map[string]int{"volume": percent}
	resp, err := c.authedRequest(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return &UpstreamError{Op: "setVolume", Status: resp.StatusCode(), Body: resp.String()}
	}

	c.logger.Debug("group volume set",
		zap.String("group_id", groupID),
		zap.Int("volume", percent),
	)
	return nil
}

// authedRequest 附带 Bearer 令牌发起请求
// 响应 401 时视缓存令牌已失效（无论 expiresAt），强制刷新一次并重试一次；
// 第二个 401 原样返回给调用方，绝不进入刷新循环
func (c *Client) authedRequest(ctx context.Context, method, endpoint string, body interface{}) (*resty.Response, error) {
	token, err := c.tokens.GetValidAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.doRequest(ctx, method, endpoint, token, body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusUnauthorized {
		return resp, nil
	}

	c.logger.Debug("request unauthorized, forcing token refresh",
		zap.String("url", endpoint),
	)
	refreshed, err := c.tokens.ForceRefresh(ctx)
	if err != nil {
		return nil, err
	}
	return c.doRequest(ctx, method, endpoint, refreshed.AccessToken, body)
}

func (c *Client) doRequest(ctx context.Context, method, endpoint, token string, body interface{}) (*resty.Response, error) {
	req := c.http.R().
		SetContext(ctx).
		SetAuthToken(token)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(method, endpoint)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

func parseAlarmsPayload(data []byte) ([]models.SonosAlarm, error) {
	var wrapped struct {
		Alarms []models.SonosAlarm `json:"alarms"`
		Items  []models.SonosAlarm `json:"items"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil {
		if wrapped.Alarms != nil {
			return wrapped.Alarms, nil
		}
		if wrapped.Items != nil {
			return wrapped.Items, nil
		}
	}

	var bare []models.SonosAlarm
	if err := json.Unmarshal(data, &bare); err == nil {
		return bare, nil
	}

	return []models.SonosAlarm{}, nil
}
