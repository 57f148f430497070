/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package mgmt

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/named-data/ndnrepo/core"
	"github.com/named-data/ndnrepo/face"
	"github.com/named-data/ndnrepo/repo"
)

// RepositoryStatusModule is the module that provides repository status information.
type RepositoryStatusModule struct {
	manager *Thread
}

// GeneralStatus is the repository status dataset.
type GeneralStatus struct {
	Version          string     `json:"version"`
	StartTimestamp   uint64     `json:"startTimestamp"`
	CurrentTimestamp uint64     `json:"currentTimestamp"`
	Backend          string     `json:"backend"`
	NFaces           int        `json:"nFaces"`
	Repository       repo.Stats `json:"repository"`
}

func (s *RepositoryStatusModule) String() string {
	return "RepositoryStatusMgmt"
}

func (s *RepositoryStatusModule) registerManager(manager *Thread) {
	s.manager = manager
}

func (s *RepositoryStatusModule) getManager() *Thread {
	return s.manager
}

func (s *RepositoryStatusModule) mount(r chi.Router) {
	r.Get("/status", s.general)
}

func (s *RepositoryStatusModule) general(w http.ResponseWriter, _ *http.Request) {
	status := &GeneralStatus{
		Version:          core.Version,
		StartTimestamp:   uint64(core.StartTimestamp.UnixMilli()),
		CurrentTimestamp: uint64(time.Now().UnixMilli()),
		Backend:          s.manager.repo.Config().Repo.Backend,
		NFaces:           face.FaceTable.Len(),
		Repository:       s.manager.repo.Stats(),
	}
	sendResponse(s, w, makeControlResponse(http.StatusOK, "OK", status))
}
