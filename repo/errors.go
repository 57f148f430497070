/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package repo

import "errors"

// Repository errors.
var (
	ErrRepositoryConfig    = errors.New("invalid repository configuration")
	ErrRepositoryWrite     = errors.New("unable to write content")
	ErrRepositoryDuplicate = errors.New("content is already stored")
	ErrRepositoryNotFound  = errors.New("no matching content")
	ErrClosed              = errors.New("repository is closed")

	errHandleStopped = errors.New("registration was canceled")
)
