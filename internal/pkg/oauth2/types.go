package oauth2

import (
	"context"
	"time"
)

// CloudPlatformScope Google Cloud API 访问范围（Dialogflow 等）
const CloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// TokenProvider 提供有效的 bearer token，必要时自动刷新
type TokenProvider interface {
	GetAccessToken(ctx context.Context) (string, error)
}

// Config 服务账号凭证配置
// CredentialsJSON 和 CredentialsFile 都为空时使用 Application Default Credentials
type Config struct {
	CredentialsJSON string        `mapstructure:"credentials_json" json:"-"`
	CredentialsFile string        `mapstructure:"credentials_file" json:"credentials_file,omitempty"`
	Scopes          []string      `mapstructure:"scopes" json:"scopes"`
	MaxRetries      int           `mapstructure:"max_retries" json:"max_retries"`
	RetryBackoff    time.Duration `mapstructure:"retry_backoff" json:"retry_backoff"`
}

func (c *Config) withDefaults() Config {
	out := *c
	if len(out.Scopes) == 0 {
		out.Scopes = []string{CloudPlatformScope}
	}
	if out.MaxRetries <= 0 {
		out.MaxRetries = 3
	}
	if out.RetryBackoff <= 0 {
		out.RetryBackoff = 200 * time.Millisecond
	}
	return out
}
