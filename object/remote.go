/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package object

import (
	"bytes"
	"context"
	"fmt"

	"github.com/named-data/ndnrepo/ndn"
	"github.com/named-data/ndnrepo/repo"
)

// Fetch retrieves the newest version of name through fetcher and returns its
// reassembled content, its version and its content type. A tombstone is
// reported as ErrContentGone.
func Fetch(ctx context.Context, fetcher repo.Fetcher, name ndn.Name, opts Options) ([]byte, uint64, ndn.ContentType, error) {
	discovered, err := fetcher.Fetch(ctx, discoveryInterest(name, nil, opts))
	if err != nil {
		return nil, 0, 0, err
	}
	info, err := parseSegment(name, discovered)
	if err != nil {
		return nil, 0, 0, err
	}
	if discovered.IsGone() {
		return nil, info.version, ndn.ContentTypeGone, fmt.Errorf("%w: %s", ErrContentGone, name)
	}

	versioned := name.Append(ndn.NewVersionComponent(info.version))
	var content bytes.Buffer
	for segment := uint64(0); segment <= info.final; segment++ {
		obj := discovered
		if segment != info.segment {
			exact := ndn.NewInterest(versioned.Append(ndn.NewSegmentComponent(segment)),
				append(opts.interestOptions(), ndn.WithMaxSuffixComponents(0))...)
			if obj, err = fetcher.Fetch(ctx, exact); err != nil {
				return nil, 0, 0, err
			}
		}
		content.Write(obj.Content())
	}
	return content.Bytes(), info.version, discovered.ContentType(), nil
}
