package models

import "time"

// TokenSet OAuth2 令牌对（每个已认证用户一份）
type TokenSet struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
	TokenType    string    `json:"tokenType,omitempty"`
	Scope        string    `json:"scope,omitempty"`
}

// Valid 访问令牌在安全边距内是否仍然可用（无需刷新）
func (t *TokenSet) Valid(now time.Time, margin time.Duration) bool {
	if t == nil || t.AccessToken == "" {
		return false
	}
	return t.ExpiresAt.After(now.Add(margin))
}
