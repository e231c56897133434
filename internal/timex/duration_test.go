package timex

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type wrapper struct {
	TTL Duration `json:"ttl" yaml:"ttl"`
}

func TestDuration_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"string", `{"ttl":"30m"}`, 30 * time.Minute, false},
		{"nanoseconds", `{"ttl":1000000000}`, time.Second, false},
		{"garbage string", `{"ttl":"soon"}`, 0, true},
		{"bool", `{"ttl":true}`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var w wrapper
			err := json.Unmarshal([]byte(tt.in), &w)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidDuration))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, w.TTL.Duration)
		})
	}
}

func TestDuration_UnmarshalYAML(t *testing.T) {
	var w wrapper
	require.NoError(t, yaml.Unmarshal([]byte("ttl: 720h\n"), &w))
	assert.Equal(t, 720*time.Hour, w.TTL.Duration)

	require.NoError(t, yaml.Unmarshal([]byte("ttl: 5000\n"), &w))
	assert.Equal(t, 5000*time.Nanosecond, w.TTL.Duration)
}

func TestDuration_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(wrapper{TTL: Duration{90 * time.Second}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ttl":"1m30s"}`, string(b))
}
