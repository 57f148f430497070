/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package dispatch

import "errors"

// Dispatch errors.
var (
	ErrListenerDispatch  = errors.New("listener failed during dispatch")
	ErrDispatcherStopped = errors.New("dispatcher is stopped")
)
