package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrislav/marwind/internal/wmcontainer"
)

func TestWriteReadRoundTrip(t *testing.T) {
	store := wmcontainer.NewStore()
	output := wmcontainer.NewContainer(wmcontainer.KindOutput)
	output.Name = "fake-0"
	require.NoError(t, store.Attach(output, store.Root, false))
	content := wmcontainer.NewContainer(wmcontainer.KindContent)
	require.NoError(t, store.Attach(content, output, false))
	ws := wmcontainer.NewContainer(wmcontainer.KindWorkspace)
	ws.Name = "1"
	ws.Num = 1
	require.NoError(t, store.Attach(ws, content, false))

	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, Write(path, store.Root, "2"))

	snap, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, "2", snap.PrevWorkspaceName)

	shapes := snap.Workspaces()
	require.Len(t, shapes, 1)
	assert.Equal(t, "1", shapes[0].Name)
	assert.Equal(t, "fake-0", shapes[0].OutputName)
}

func TestReadMalformedFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))
	_, err := Read(path)
	assert.Error(t, err)
}
