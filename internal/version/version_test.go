package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })

	Version = "1.2.3"
	info := Get()

	assert.Equal(t, "1.2.3", info.Version)
	assert.Equal(t, GitCommit, info.Commit)
	assert.Contains(t, info.String(), "hookrelay 1.2.3")
}
