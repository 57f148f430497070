package repo_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/named-data/ndnrepo/ndn"
	"github.com/named-data/ndnrepo/repo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyFetcher struct {
	calls atomic.Int32
	inner repo.Fetcher
}

func (f *flakyFetcher) Fetch(ctx context.Context, interest *ndn.Interest) (*ndn.ContentObject, error) {
	if f.calls.Add(1)%2 == 1 {
		return nil, errors.New("transient failure")
	}
	return f.inner.Fetch(ctx, interest)
}

func TestPollerSurvivesErrorsAndFollowsInterest(t *testing.T) {
	r := openRepo(t, testConfig())
	require.NoError(t, r.SaveContent(object(t, "/poll/1", "a")))
	require.NoError(t, r.SaveContent(object(t, "/poll/2", "b")))

	prefix := ndn.MustNameFromString("/poll")
	fetcher := &flakyFetcher{inner: r}

	var seen []string
	var poller *repo.Poller
	poller = repo.NewPoller(fetcher, ndn.NewInterest(prefix, ndn.WithOrder(ndn.OrderLeftmost)), time.Millisecond,
		func(obj *ndn.ContentObject) (*ndn.Interest, error) {
			seen = append(seen, obj.Name().String())
			if len(seen) == 2 {
				poller.Stop()
				return nil, nil
			}
			return poller.Interest().With(ndn.WithExclude(ndn.ExcludeUpTo(obj.Name().At(prefix.Size())))), errors.New("handler hiccup")
		})

	done := make(chan error, 1)
	go func() { done <- poller.Run(context.Background()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(waitTimeout):
		poller.Stop()
		t.Fatal("poller did not stop")
	}
	assert.Equal(t, []string{"/poll/1", "/poll/2"}, seen)
	assert.GreaterOrEqual(t, fetcher.calls.Load(), int32(4))
}

func TestPollerStopsOnContext(t *testing.T) {
	r := openRepo(t, testConfig())
	poller := repo.NewPoller(r, ndn.NewInterest(ndn.MustNameFromString("/never")), time.Millisecond,
		func(*ndn.ContentObject) (*ndn.Interest, error) { return nil, nil })

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, poller.Run(ctx), context.DeadlineExceeded)
}
