/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package object

import (
	"context"
	"fmt"
	"time"

	"github.com/named-data/ndnrepo/core"
	"github.com/named-data/ndnrepo/dispatch"
	"github.com/named-data/ndnrepo/ndn"
	"github.com/named-data/ndnrepo/ndn/security"
	"github.com/named-data/ndnrepo/repo"
	"github.com/named-data/ndnrepo/utils/comparison"
)

// Options controls how versioned objects are written and read.
type Options struct {
	// Signer for new segments. Defaults to DigestSha256.
	Signer security.Signer
	// Publisher restricts reads to segments signed with this key digest.
	Publisher []byte
	// SegmentSize is the maximum content size of one segment. Defaults to
	// repo.segment_size of the repository written to.
	SegmentSize int
	// Lifetime of Interests issued while fetching. Defaults to pit.default_lifetime.
	Lifetime time.Duration
}

func (o Options) signer() security.Signer {
	if o.Signer == nil {
		return security.DigestSha256{}
	}
	return o.Signer
}

func (o Options) segmentSize() int {
	if o.SegmentSize > 0 {
		return o.SegmentSize
	}
	return core.GetConfig().Repo.SegmentSize
}

func (o Options) interestOptions() []ndn.InterestOption {
	var opts []ndn.InterestOption
	if o.Publisher != nil {
		opts = append(opts, ndn.WithPublisher(o.Publisher))
	}
	if o.Lifetime > 0 {
		opts = append(opts, ndn.WithLifetime(o.Lifetime))
	}
	return opts
}

// discoveryInterest asks for the last segment of the newest version of name, newer than after if given.
func discoveryInterest(name ndn.Name, after *uint64, opts Options) *ndn.Interest {
	interestOpts := append(opts.interestOptions(),
		ndn.WithOrder(ndn.OrderRightmost),
		ndn.WithMinSuffixComponents(2),
		ndn.WithMaxSuffixComponents(2))
	if after != nil {
		interestOpts = append(interestOpts, ndn.WithExclude(ndn.ExcludeUpTo(ndn.NewVersionComponent(*after))))
	}
	return ndn.NewInterest(name, interestOpts...)
}

type segmentInfo struct {
	version uint64
	segment uint64
	final   uint64
}

// parseSegment checks that obj is named base/<version>/<segment> and carries a final segment number.
func parseSegment(base ndn.Name, obj *ndn.ContentObject) (segmentInfo, error) {
	var info segmentInfo
	name := obj.Name()
	if name.Size() != base.Size()+2 || !base.IsPrefixOf(name) {
		return info, fmt.Errorf("%w: %s", ErrBadSegment, name)
	}

	var ok bool
	if info.version, ok = name.At(base.Size()).Version(); !ok {
		return info, fmt.Errorf("%w: %s has no version", ErrBadSegment, name)
	}
	if info.segment, ok = name.At(-1).Segment(); !ok {
		return info, fmt.Errorf("%w: %s has no segment number", ErrBadSegment, name)
	}
	final := obj.MetaInfo().FinalBlockID
	if final == nil {
		return info, fmt.Errorf("%w: %s has no final block", ErrBadSegment, name)
	}
	if info.final, ok = final.Segment(); !ok || info.final < info.segment {
		return info, fmt.Errorf("%w: %s has an invalid final block", ErrBadSegment, name)
	}
	return info, nil
}

// latestVersion returns the newest stored version of name.
func latestVersion(r *repo.Repository, name ndn.Name, opts Options) (uint64, bool, error) {
	obj, err := r.Get(discoveryInterest(name, nil, opts))
	if err != nil || obj == nil {
		return 0, false, err
	}
	info, err := parseSegment(name, obj)
	if err != nil {
		return 0, false, err
	}
	return info.version, true, nil
}

// Segment splits content into the segments of version of name. Every
// segment carries the final segment number. A nil content yields one empty segment.
func Segment(name ndn.Name, version uint64, content []byte, contentType ndn.ContentType, opts Options) ([]*ndn.ContentObject, error) {
	versioned := name.Append(ndn.NewVersionComponent(version))

	size := opts.segmentSize()
	count := comparison.Max(1, (len(content)+size-1)/size)
	final := ndn.NewSegmentComponent(uint64(count - 1))

	segments := make([]*ndn.ContentObject, 0, count)
	for i := 0; i < count; i++ {
		chunk := content[comparison.Min(i*size, len(content)):comparison.Min((i+1)*size, len(content))]
		meta := ndn.MetaInfo{ContentType: contentType, FinalBlockID: &final}
		obj, err := ndn.NewContentObject(versioned.Append(ndn.NewSegmentComponent(uint64(i))), meta, chunk, opts.signer())
		if err != nil {
			return nil, err
		}
		segments = append(segments, obj)
	}
	return segments, nil
}

func publish(r *repo.Repository, name ndn.Name, content []byte, contentType ndn.ContentType, opts Options) (*ndn.ContentObject, uint64, error) {
	if opts.SegmentSize <= 0 {
		opts.SegmentSize = r.Config().Repo.SegmentSize
	}

	version := uint64(time.Now().UnixMicro())
	if latest, ok, err := latestVersion(r, name, opts); err != nil {
		return nil, 0, err
	} else if ok {
		version = comparison.Max(version, latest+1)
	}

	segments, err := Segment(name, version, content, contentType, opts)
	if err != nil {
		return nil, 0, err
	}
	for _, obj := range segments {
		if _, _, err = r.Put(obj); err != nil {
			return nil, 0, err
		}
	}
	core.LogDebug("VersionedObject", "Published ", name, "/v=", version, " in ", len(segments), " segments")
	return segments[0], version, nil
}

// Save encodes value and stores it as a new version of name, split into
// segments named name/<version>/<segment>. It returns the first segment.
func Save[T any](r *repo.Repository, name ndn.Name, value T, codec Codec[T], opts Options) (*ndn.ContentObject, error) {
	content, err := codec.Encode(value)
	if err != nil {
		return nil, err
	}
	obj, _, err := publish(r, name, content, codec.ContentType(), opts)
	return obj, err
}

// Delete stores a tombstone as a new version of name.
func Delete(r *repo.Repository, name ndn.Name, opts Options) (*ndn.ContentObject, error) {
	obj, _, err := publish(r, name, nil, ndn.ContentTypeGone, opts)
	return obj, err
}

// fetchSegment waits for the object with exactly this name.
func fetchSegment(ctx context.Context, r *repo.Repository, name ndn.Name, opts Options) (*ndn.ContentObject, error) {
	interestOpts := append(opts.interestOptions(), ndn.WithMaxSuffixComponents(0))
	result := make(chan *ndn.ContentObject, 1)
	handle, err := r.ExpressInterest(ndn.NewInterest(name, interestOpts...), dispatch.ContentListenerFuncs{
		Arrived: func(objects []*ndn.ContentObject, _ *ndn.Interest) (*ndn.Interest, error) {
			result <- objects[0]
			return nil, nil
		},
		Canceled: func(*ndn.Interest) {
			result <- nil
		},
	})
	if err != nil {
		return nil, err
	}

	select {
	case obj := <-result:
		if obj == nil {
			return nil, fmt.Errorf("%w: %s", ErrContentNotReady, name)
		}
		return obj, nil
	case <-ctx.Done():
		r.Cancel(handle)
		return nil, ctx.Err()
	}
}
