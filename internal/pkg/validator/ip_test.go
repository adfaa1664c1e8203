package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetIPOrDefault(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"192.168.1.10", "192.168.1.10"},
		{" 10.0.0.1 ", "10.0.0.1"},
		{"::ffff:10.0.0.1", "10.0.0.1"},
		{"fe80::1%eth0", "fe80::1"},
		{"2001:DB8::1", "2001:db8::1"},
		{"", "unknown"},
		{"not-an-ip", "unknown"},
		{"300.1.1.1", "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, GetIPOrDefault(tt.in, "unknown"))
		})
	}
}

func TestIsValidIP(t *testing.T) {
	assert.True(t, IsValidIP("127.0.0.1"))
	assert.True(t, IsValidIP("::1"))
	assert.False(t, IsValidIP(""))
	assert.False(t, IsValidIP("fe80::1%eth0"))
	assert.False(t, IsValidIP("fe80::1%eth0x%"))

	// 限流 key 仍然能拿到去掉 zone 的地址
	assert.Equal(t, "fe80::1", GetIPOrDefault("fe80::1%eth0x%", "unknown"))
}
