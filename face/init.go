/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

// MaxPacketSize is the largest TLV frame accepted on a face.
const MaxPacketSize = 8800

// recvBufferSize is the size of the receive buffer of a stream face.
const recvBufferSize = MaxPacketSize * 32

// maxPoolBlockCnt is the number of receive buffers a face may hold.
const maxPoolBlockCnt = 1
