/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package ndn

import "errors"

// NDN packet errors.
var (
	ErrMalformedName     = errors.New("malformed name")
	ErrMalformedEncoding = errors.New("malformed encoding")
	ErrUnsigned          = errors.New("content object is not signed")
)
