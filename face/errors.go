/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import "errors"

// Face errors.
var (
	ErrBadURI        = errors.New("invalid face URI")
	ErrFrameTooLarge = errors.New("received too much data without valid TLV block")
	ErrFaceClosed    = errors.New("face is closed")
	ErrNack          = errors.New("interest was not satisfied")
)
