/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package object

import "errors"

// Read-state errors of a versioned object.
var (
	ErrContentNotReady = errors.New("content is not available yet")
	ErrContentGone     = errors.New("content has been deleted")
	ErrBadSegment      = errors.New("segment does not belong to a versioned object")
)
