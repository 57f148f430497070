//go:build !linux

/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package impl

import "syscall"

// SyscallGetSocketSendQueueSize is not supported outside Linux and always returns 0.
func SyscallGetSocketSendQueueSize(c syscall.RawConn) uint64 {
	return 0
}
