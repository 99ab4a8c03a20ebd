package config

import "testing"

func TestExpandEnv(t *testing.T) {
	t.Setenv("FS_SOCKET", "/run/fs.sock")
	t.Setenv("FS_EMPTY", "")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"set", "socket: ${FS_SOCKET}", "socket: /run/fs.sock"},
		{"unset", "socket: ${FS_UNSET_12345}", "socket: "},
		{"fallback when unset", "level: ${FS_UNSET_12345:-info}", "level: info"},
		{"fallback ignored when set", "socket: ${FS_SOCKET:-/tmp/x}", "socket: /run/fs.sock"},
		{"fallback when empty", "level: ${FS_EMPTY:-warn}", "level: warn"},
		{"multiple", "${FS_SOCKET}|${FS_UNSET_12345:-b}", "/run/fs.sock|b"},
		{"bare dollar untouched", "cost: $FS_SOCKET", "cost: $FS_SOCKET"},
		{"no refs", "plain text", "plain text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpandEnv(tt.input); got != tt.want {
				t.Errorf("ExpandEnv(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
