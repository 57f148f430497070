/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/named-data/ndnrepo/core"
)

// FaceTable is the global face table for this repository
var FaceTable Table

// Table holds all faces connected to the repository.
type Table struct {
	faces      sync.Map
	nextFaceID atomic.Uint64
}

func init() {
	FaceTable.nextFaceID.Store(1)
}

// Add assigns the face an ID and adds it to the face table.
func (t *Table) Add(face *Face) {
	faceID := t.nextFaceID.Add(1) - 1
	face.faceID = faceID
	t.faces.Store(faceID, face)
	core.LogDebug("FaceTable", "Registered FaceID=", faceID)
}

// Get gets the face with the specified ID (if any) from the face table.
func (t *Table) Get(id uint64) *Face {
	face, ok := t.faces.Load(id)
	if ok {
		return face.(*Face)
	}
	return nil
}

// GetAll returns all faces, ordered by ID.
func (t *Table) GetAll() []*Face {
	faces := make([]*Face, 0)
	t.faces.Range(func(_, face interface{}) bool {
		faces = append(faces, face.(*Face))
		return true
	})
	sort.Slice(faces, func(i, j int) bool { return faces[i].faceID < faces[j].faceID })
	return faces
}

// Len returns the number of faces.
func (t *Table) Len() int {
	n := 0
	t.faces.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n
}

// Remove removes a face from the face table.
func (t *Table) Remove(id uint64) {
	t.faces.Delete(id)
	core.LogDebug("FaceTable", "Unregistered FaceID=", id)
}

// CloseAll closes every face.
func (t *Table) CloseAll() {
	for _, face := range t.GetAll() {
		face.Close()
	}
}
