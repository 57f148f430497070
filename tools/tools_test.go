package tools_test

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/named-data/ndnrepo/core"
	"github.com/named-data/ndnrepo/face"
	"github.com/named-data/ndnrepo/ndn"
	"github.com/named-data/ndnrepo/object"
	"github.com/named-data/ndnrepo/repo"
	"github.com/named-data/ndnrepo/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connect(t *testing.T) (*repo.Repository, *face.Client) {
	config := core.DefaultConfig()
	config.Pit.ExpiryInterval = 10
	r, err := repo.New(config)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })

	uri := face.MakeUnixFaceURI(filepath.Join(t.TempDir(), "repo.sock"))
	l, err := face.MakeUnixStreamListener(uri, r)
	require.NoError(t, err)
	require.NoError(t, l.Listen())
	go l.Run()
	t.Cleanup(func() { l.Close() })

	client, err := face.Dial(uri.String())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return r, client
}

func timeout(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestPutThenGet(t *testing.T) {
	r, client := connect(t)
	name := ndn.MustNameFromString("/files/report")
	content := bytes.Repeat([]byte("repository "), 200)

	vname, err := tools.Put(timeout(t), client, name, content, object.Options{SegmentSize: 500})
	require.NoError(t, err)
	assert.Equal(t, name.Size()+1, vname.Size())

	var out bytes.Buffer
	n, version, err := tools.Get(timeout(t), client, name, 100*time.Millisecond, &out)
	require.NoError(t, err)
	assert.Equal(t, len(content), n)
	assert.Equal(t, content, out.Bytes())
	v, ok := vname.At(-1).Version()
	require.True(t, ok)
	assert.Equal(t, v, version)

	// The same object is readable locally as a versioned object
	local, _, _, err := object.Fetch(timeout(t), r, name, object.Options{})
	require.NoError(t, err)
	assert.Equal(t, content, local)
}

func TestGetMissing(t *testing.T) {
	_, client := connect(t)

	var out bytes.Buffer
	_, _, err := tools.Get(timeout(t), client, ndn.MustNameFromString("/missing"), 50*time.Millisecond, &out)
	assert.ErrorIs(t, err, repo.ErrRepositoryNotFound)
	assert.Zero(t, out.Len())
}

type syncBuffer struct {
	mutex sync.Mutex
	buf   bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) lines() []string {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return strings.Split(strings.TrimSpace(b.buf.String()), "\n")
}

func TestWatchReportsEachNewChild(t *testing.T) {
	_, client := connect(t)
	existing := []string{"/news/1", "/news/2"}
	for _, name := range existing {
		segments, err := object.Segment(ndn.MustNameFromString(name), 1, []byte(name), ndn.ContentTypeBlob, object.Options{})
		require.NoError(t, err)
		require.NoError(t, client.Publish(segments[0]))
	}

	watch := tools.NewWatch(10*time.Millisecond, 50*time.Millisecond, 3)
	var out syncBuffer
	done := make(chan error, 1)
	go func() {
		done <- watch.Watch(timeout(t), client, []ndn.Name{ndn.MustNameFromString("/news")}, &out)
	}()

	require.Eventually(t, func() bool { return len(out.lines()) >= 1 && out.lines()[0] != "" }, 2*time.Second, 10*time.Millisecond)
	for _, name := range []string{"/news/3", "/news/4"} {
		segments, err := object.Segment(ndn.MustNameFromString(name), 1, []byte(name), ndn.ContentTypeBlob, object.Options{})
		require.NoError(t, err)
		require.NoError(t, client.Publish(segments[0]))
	}

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("watch did not stop after three objects")
	}

	lines := out.lines()
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "/news/2/")
	assert.Contains(t, lines[1], "/news/3/")
	assert.Contains(t, lines[2], "/news/4/")
}
