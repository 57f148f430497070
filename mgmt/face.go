/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package mgmt

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/named-data/ndnrepo/core"
	"github.com/named-data/ndnrepo/face"
)

// FaceModule is the module that lists and closes faces.
type FaceModule struct {
	manager *Thread
}

func (f *FaceModule) String() string {
	return "FaceMgmt"
}

func (f *FaceModule) registerManager(manager *Thread) {
	f.manager = manager
}

func (f *FaceModule) getManager() *Thread {
	return f.manager
}

func (f *FaceModule) mount(r chi.Router) {
	r.Get("/faces", f.list)
	r.Delete("/faces/{faceID}", f.destroy)
}

func (f *FaceModule) list(w http.ResponseWriter, _ *http.Request) {
	faces := face.FaceTable.GetAll()
	dataset := make([]face.State, 0, len(faces))
	for _, entry := range faces {
		dataset = append(dataset, entry.State())
	}
	sendResponse(f, w, makeControlResponse(http.StatusOK, "OK", dataset))
}

func (f *FaceModule) destroy(w http.ResponseWriter, r *http.Request) {
	faceID, err := strconv.ParseUint(chi.URLParam(r, "faceID"), 10, 64)
	if err != nil {
		sendResponse(f, w, makeControlResponse(http.StatusBadRequest, "FaceID is incorrect", nil))
		return
	}

	entry := face.FaceTable.Get(faceID)
	if entry == nil {
		sendResponse(f, w, makeControlResponse(http.StatusNotFound, "Face does not exist", nil))
		return
	}
	core.LogInfo(f, "Destroying FaceID=", faceID)
	entry.Close()
	sendResponse(f, w, makeControlResponse(http.StatusOK, "OK", nil))
}
