package face_test

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/named-data/ndnrepo/core"
	"github.com/named-data/ndnrepo/face"
	"github.com/named-data/ndnrepo/ndn"
	"github.com/named-data/ndnrepo/ndn/security"
	"github.com/named-data/ndnrepo/ndn/tlv"
	"github.com/named-data/ndnrepo/repo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openRepo(t *testing.T) *repo.Repository {
	config := core.DefaultConfig()
	config.Pit.ExpiryInterval = 10
	r, err := repo.New(config)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func serve(t *testing.T, l face.Listener) {
	require.NoError(t, l.Listen())
	go l.Run()
	t.Cleanup(func() { l.Close() })
}

func dial(t *testing.T, uri string) *face.Client {
	c, err := face.Dial(uri)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func object(t *testing.T, name string, content string) *ndn.ContentObject {
	obj, err := ndn.NewContentObject(ndn.MustNameFromString(name), ndn.MetaInfo{}, []byte(content), security.DigestSha256{})
	require.NoError(t, err)
	return obj
}

func timeout(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func startUnix(t *testing.T, r *repo.Repository) string {
	uri := face.MakeUnixFaceURI(filepath.Join(t.TempDir(), "repo.sock"))
	l, err := face.MakeUnixStreamListener(uri, r)
	require.NoError(t, err)
	serve(t, l)
	return uri.String()
}

func TestUnixPublishAndExpress(t *testing.T) {
	r := openRepo(t)
	c := dial(t, startUnix(t, r))

	obj := object(t, "/a/b/1", "hello")
	require.NoError(t, c.Publish(obj))

	got, err := c.Express(timeout(t), ndn.NewInterest(ndn.MustNameFromString("/a/b")))
	require.NoError(t, err)
	assert.Equal(t, obj.Digest(), got.Digest())
	assert.Equal(t, "hello", string(got.Content()))

	stored, err := r.Get(ndn.NewInterest(ndn.MustNameFromString("/a/b/1")))
	require.NoError(t, err)
	require.NotNil(t, stored)
}

func TestExpressNack(t *testing.T) {
	r := openRepo(t)
	c := dial(t, startUnix(t, r))

	interest := ndn.NewInterest(ndn.MustNameFromString("/missing"), ndn.WithLifetime(50*time.Millisecond))
	_, err := c.Express(timeout(t), interest)
	assert.ErrorIs(t, err, face.ErrNack)

	_, err = c.Fetch(timeout(t), interest.With(ndn.WithNonce([]byte{1, 2, 3, 4})))
	assert.ErrorIs(t, err, repo.ErrRepositoryNotFound)
}

func TestPendingInterestSatisfiedByOtherFace(t *testing.T) {
	r := openRepo(t)
	uri := startUnix(t, r)
	consumer := dial(t, uri)
	producer := dial(t, uri)

	result := make(chan *ndn.ContentObject, 1)
	go func() {
		obj, err := consumer.Express(timeout(t), ndn.NewInterest(ndn.MustNameFromString("/live"), ndn.WithLifetime(time.Second)))
		assert.NoError(t, err)
		result <- obj
	}()

	require.Eventually(t, func() bool { return r.Stats().PendingInterests == 1 }, time.Second, 5*time.Millisecond)
	obj := object(t, "/live/1", "fresh")
	require.NoError(t, producer.Publish(obj))

	select {
	case got := <-result:
		require.NotNil(t, got)
		assert.Equal(t, obj.Digest(), got.Digest())
	case <-time.After(2 * time.Second):
		t.Fatal("pending Interest was not satisfied")
	}
}

func TestCloseCancelsPendingInterests(t *testing.T) {
	r := openRepo(t)
	c, err := face.Dial(startUnix(t, r))
	require.NoError(t, err)

	go c.Express(context.Background(), ndn.NewInterest(ndn.MustNameFromString("/never"), ndn.WithLifetime(time.Minute)))
	require.Eventually(t, func() bool { return r.Stats().PendingInterests == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, c.Close())
	require.Eventually(t, func() bool { return r.Stats().PendingInterests == 0 }, time.Second, 5*time.Millisecond)

	_, err = c.Express(timeout(t), ndn.NewInterest(ndn.MustNameFromString("/after")))
	assert.ErrorIs(t, err, face.ErrFaceClosed)
}

func TestTCPFraming(t *testing.T) {
	r := openRepo(t)
	l, err := face.MakeTCPListener(face.MakeTCPFaceURI("127.0.0.1", 0), r)
	require.NoError(t, err)
	serve(t, l)

	first := object(t, "/tcp/1", "one")
	second := object(t, "/tcp/2", "two")

	// Two objects in one write, the second split across writes
	conn, err := net.Dial("tcp", l.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	wire := append(append([]byte{}, first.Wire()...), second.Wire()[:5]...)
	_, err = conn.Write(wire)
	require.NoError(t, err)
	_, err = conn.Write(second.Wire()[5:])
	require.NoError(t, err)

	require.Eventually(t, func() bool { return r.Stats().Objects == 2 }, time.Second, 5*time.Millisecond)

	c := dial(t, "tcp://"+l.Addr().String())
	got, err := c.Express(timeout(t), ndn.NewInterest(ndn.MustNameFromString("/tcp"), ndn.WithOrder(ndn.OrderRightmost)))
	require.NoError(t, err)
	assert.True(t, got.Name().Equals(second.Name()))
}

func TestOversizedFrameClosesFace(t *testing.T) {
	r := openRepo(t)
	l, err := face.MakeTCPListener(face.MakeTCPFaceURI("127.0.0.1", 0), r)
	require.NoError(t, err)
	serve(t, l)

	conn, err := net.Dial("tcp", l.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	header := append(tlv.EncodeVarNum(tlv.ContentObject), tlv.EncodeVarNum(face.MaxPacketSize+1)...)
	_, err = conn.Write(header)
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err = conn.Read(make([]byte, 16))
	assert.Error(t, err)
}

func TestWebSocket(t *testing.T) {
	r := openRepo(t)
	l, err := face.MakeWebSocketListener(face.MakeWebSocketFaceURI("127.0.0.1", 0), r)
	require.NoError(t, err)
	serve(t, l)

	c := dial(t, "ws://"+l.Addr().String()+"/")
	obj := object(t, "/web/page", "<html/>")
	require.NoError(t, c.Publish(obj))

	got, err := c.Express(timeout(t), ndn.NewInterest(ndn.MustNameFromString("/web/page")))
	require.NoError(t, err)
	assert.Equal(t, obj.Digest(), got.Digest())

	require.Eventually(t, func() bool { return face.FaceTable.Len() > 0 }, time.Second, 5*time.Millisecond)
	var found bool
	for _, f := range face.FaceTable.GetAll() {
		state := f.State()
		if state.LocalURI == "ws://127.0.0.1:0/" && state.NInContentObjects == 1 &&
			state.NInInterests == 1 && state.NOutContent == 1 {
			found = true
		}
	}
	assert.True(t, found)
}

func TestMakeNack(t *testing.T) {
	interest := ndn.NewInterest(ndn.MustNameFromString("/n"), ndn.WithMaxSuffixComponents(1))
	nack, err := face.MakeNack(interest)
	require.NoError(t, err)
	assert.Equal(t, ndn.ContentTypeNack, nack.ContentType())
	assert.True(t, nack.Name().Equals(interest.Name()))

	block, _, err := tlv.DecodeBlock(nack.Content())
	require.NoError(t, err)
	decoded, err := ndn.DecodeInterest(block)
	require.NoError(t, err)
	assert.Equal(t, interest.ID(), decoded.ID())
}
