package reconcile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOwnerGroupMode(t *testing.T) {
	assert.True(t, OwnerGroupMode{Follow: true}.IsZero(), "follow alone sets nothing")
	assert.False(t, OwnerGroupMode{Mode: "0640"}.IsZero())

	path := filepath.Join(t.TempDir(), "objects.cfg")
	writeFile(t, path, "define host {\n}\n")

	require.NoError(t, OwnerGroupMode{Mode: "0600"}.Apply(path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	assert.Error(t, OwnerGroupMode{Mode: "not-octal"}.Apply(path))
	assert.Error(t, OwnerGroupMode{Owner: "no-such-user-zz"}.Apply(path))
}
