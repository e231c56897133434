package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		allowedFlags []string
		want         []string
	}{
		{
			name:         "short flag with separate value",
			args:         []string{"-c", "conf.yaml", "-d", "memory"},
			allowedFlags: []string{"-c"},
			want:         []string{"-c", "conf.yaml"},
		},
		{
			name:         "equals form",
			args:         []string{"--config=alt.json", "-d", "sqlite"},
			allowedFlags: []string{"--config"},
			want:         []string{"--config=alt.json"},
		},
		{
			name:         "unknown flags and positionals ignored",
			args:         []string{"-x", "1", "--y=2", "positional"},
			allowedFlags: []string{"-c"},
			want:         []string{},
		},
		{
			name:         "trailing flag without value",
			args:         []string{"-l"},
			allowedFlags: []string{"-l"},
			want:         []string{"-l"},
		},
		{
			name:         "next dash token is not a value",
			args:         []string{"-ns", "-d", "memory"},
			allowedFlags: []string{"-ns", "-d"},
			want:         []string{"-ns", "-d", "memory"},
		},
		{
			name:         "repeated flag keeps order",
			args:         []string{"-c", "one.json", "-c", "two.json"},
			allowedFlags: []string{"-c"},
			want:         []string{"-c", "one.json", "-c", "two.json"},
		},
		{
			name:         "empty args",
			args:         nil,
			allowedFlags: []string{"-c"},
			want:         []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowedFlags))
		})
	}
}

func TestConfigFileFlag(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"short", []string{"-c", "/etc/gh.yaml"}, "/etc/gh.yaml"},
		{"long", []string{"-config", "/etc/gh.json"}, "/etc/gh.json"},
		{"double dash equals", []string{"--config=/tmp/x.yml"}, "/tmp/x.yml"},
		{"absent", []string{"-d", "memory"}, ""},
		{"last wins", []string{"-c", "1.json", "-config", "2.json"}, "2.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConfigFileFlag(tt.args))
		})
	}
}
