/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package table

import "errors"

// Table errors.
var (
	ErrStoreCorruption = errors.New("content store record is corrupt")
	ErrUnknownBackend  = errors.New("unknown content store backend")
	ErrBackendClosed   = errors.New("content store backend is closed")
)
