package validator

import (
	"net/netip"
	"strings"
)

// NormalizeIP 规范化 IP 地址
// 移除 IPv6 的 zone identifier (例如 fe80::1%eth0 -> fe80::1)，并还原 IPv4-in-IPv6 地址
func NormalizeIP(ip string) string {
	ip = strings.TrimSpace(ip)
	if idx := strings.IndexByte(ip, '%'); idx != -1 {
		ip = ip[:idx]
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return ip
	}
	return addr.Unmap().String()
}

// IsValidIP 验证 IP 地址格式（支持 IPv4 和 IPv6，不接受带 zone 的地址）
func IsValidIP(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	return err == nil && addr.Zone() == ""
}

// GetIPOrDefault 获取有效IP或返回默认值
func GetIPOrDefault(ip, def string) string {
	normalized := NormalizeIP(ip)
	if IsValidIP(normalized) {
		return normalized
	}
	return def
}
