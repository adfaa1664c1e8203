package oauth2

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// GoogleTokenProvider Google 服务账号 access token 提供者
// 并发安全，多个调用方共享同一次刷新
type GoogleTokenProvider struct {
	config    Config
	source    oauth2.TokenSource
	projectID string

	mu           sync.Mutex
	currentToken *oauth2.Token
}

// NewGoogleTokenProvider 从配置加载凭证，未配置时使用 Application Default Credentials
func NewGoogleTokenProvider(ctx context.Context, cfg *Config) (*GoogleTokenProvider, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	c := cfg.withDefaults()

	var (
		creds *google.Credentials
		err   error
	)
	switch {
	case c.CredentialsJSON != "":
		creds, err = google.CredentialsFromJSON(ctx, []byte(c.CredentialsJSON), c.Scopes...)
	case c.CredentialsFile != "":
		var data []byte
		data, err = os.ReadFile(c.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		creds, err = google.CredentialsFromJSON(ctx, data, c.Scopes...)
	default:
		creds, err = google.FindDefaultCredentials(ctx, c.Scopes...)
	}
	if err != nil {
		return nil, fmt.Errorf("load google credentials: %w", err)
	}

	return newProvider(c, creds.TokenSource, creds.ProjectID), nil
}

func newProvider(cfg Config, source oauth2.TokenSource, projectID string) *GoogleTokenProvider {
	return &GoogleTokenProvider{
		config:    cfg.withDefaults(),
		source:    source,
		projectID: projectID,
	}
}

// ProjectID 返回凭证中的项目 ID（可能为空）
func (p *GoogleTokenProvider) ProjectID() string {
	return p.projectID
}

// GetAccessToken 返回缓存的 token，过期时重新获取
func (p *GoogleTokenProvider) GetAccessToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.currentToken.Valid() {
		return p.currentToken.AccessToken, nil
	}

	var lastErr error
	for attempt := 1; attempt <= p.config.MaxRetries; attempt++ {
		token, err := p.source.Token()
		if err == nil {
			p.currentToken = token
			return token.AccessToken, nil
		}
		lastErr = err

		if attempt == p.config.MaxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Duration(attempt) * p.config.RetryBackoff):
		}
	}

	return "", fmt.Errorf("failed to fetch token after %d attempts: %w", p.config.MaxRetries, lastErr)
}
