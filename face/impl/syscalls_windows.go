//go:build windows

/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package impl

import "syscall"

// SyscallReuseAddr is a no-op on Windows.
func SyscallReuseAddr(network string, address string, c syscall.RawConn) error {
	return nil
}
