/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package core

import "time"

// Version of ndnrepo.
var Version string

// BuildTime contains the timestamp of when the version of ndnrepo was built.
var BuildTime string

// StartTimestamp is the time the repository was started.
var StartTimestamp time.Time
