package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfoString(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want string
	}{
		{
			name: "plain",
			info: Info{Version: "dev", GoVersion: "go1.25.0", Platform: "linux/amd64"},
			want: "sortinghat dev go1.25.0 linux/amd64",
		},
		{
			name: "with commit and date",
			info: Info{Version: "v1.2.0", GitCommit: "0123456789abcdef", BuildDate: "2026-10-01", GoVersion: "go1.25.0", Platform: "darwin/arm64"},
			want: "sortinghat v1.2.0 (0123456) built 2026-10-01 go1.25.0 darwin/arm64",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.info.String())
		})
	}
}

func TestGetVersionPrefersLdflags(t *testing.T) {
	original := Version
	t.Cleanup(func() { Version = original })

	Version = "v9.9.9"
	assert.Equal(t, "v9.9.9", GetVersion())
	assert.Equal(t, "v9.9.9", Get().Version)
}
