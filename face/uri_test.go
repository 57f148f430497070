package face_test

import (
	"testing"

	"github.com/named-data/ndnrepo/face"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnixURI(t *testing.T) {
	uri := face.MakeUnixFaceURI("/run/ndnrepo.sock")
	assert.Equal(t, "unix", uri.Scheme())
	assert.Equal(t, "/run/ndnrepo.sock", uri.Path())
	assert.Equal(t, uint16(0), uri.Port())
	assert.Equal(t, "/run/ndnrepo.sock", uri.Address())
	assert.Equal(t, "unix:///run/ndnrepo.sock", uri.String())

	parsed, err := face.ParseURI("unix:///run/ndnrepo.sock")
	require.NoError(t, err)
	assert.Equal(t, uri, parsed)

	_, err = face.ParseURI("unix://")
	assert.ErrorIs(t, err, face.ErrBadURI)
}

func TestTCPURI(t *testing.T) {
	uri := face.MakeTCPFaceURI("127.0.0.1", 7376)
	assert.Equal(t, "tcp", uri.Scheme())
	assert.Equal(t, "127.0.0.1:7376", uri.Address())
	assert.Equal(t, "tcp://127.0.0.1:7376", uri.String())

	parsed, err := face.ParseURI("tcp://127.0.0.1:7376")
	require.NoError(t, err)
	assert.Equal(t, uri, parsed)

	parsed, err = face.ParseURI("tcp://[::1]:6363")
	require.NoError(t, err)
	assert.Equal(t, "::1", parsed.Path())
	assert.Equal(t, "tcp://[::1]:6363", parsed.String())

	_, err = face.ParseURI("tcp://127.0.0.1")
	assert.ErrorIs(t, err, face.ErrBadURI)
	_, err = face.ParseURI("tcp://127.0.0.1:0")
	assert.ErrorIs(t, err, face.ErrBadURI)
	_, err = face.ParseURI("tcp://127.0.0.1:70000")
	assert.ErrorIs(t, err, face.ErrBadURI)
}

func TestWebSocketURI(t *testing.T) {
	parsed, err := face.ParseURI("ws://localhost:9797/")
	require.NoError(t, err)
	assert.Equal(t, "ws", parsed.Scheme())
	assert.Equal(t, uint16(9797), parsed.Port())
	assert.Equal(t, "ws://localhost:9797/", parsed.String())
}

func TestUnsupportedURI(t *testing.T) {
	_, err := face.ParseURI("udp4://127.0.0.1:6363")
	assert.ErrorIs(t, err, face.ErrBadURI)
	_, err = face.ParseURI("eth://[00:11:22:33:44:aa]")
	assert.ErrorIs(t, err, face.ErrBadURI)
}
