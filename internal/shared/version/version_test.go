package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "v1.2.3", Normalize("1.2.3"))
	assert.Equal(t, "v1.2.3", Normalize(" v1.2.3 "))
	assert.Equal(t, "dev", Normalize("dev"))
	assert.Equal(t, "", Normalize(""))
}

func TestGet(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })

	Version = "1.4.0"
	assert.True(t, Get().Release)
	assert.Equal(t, "v1.4.0", Get().Version)

	Version = "1.5.0-rc.1"
	assert.False(t, Get().Release)

	Version = "dev"
	assert.False(t, Get().Release)
}

func TestInfoString(t *testing.T) {
	info := Info{Version: "v1.2.0", Commit: "abc123", BuildTime: "2025-03-01"}
	assert.Equal(t, "v1.2.0 (commit abc123, built 2025-03-01)", info.String())
}
