/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package mgmt

import (
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/named-data/ndnrepo/core"
	"github.com/named-data/ndnrepo/repo"
)

// Thread represents the management server
type Thread struct {
	repo    *repo.Repository
	bind    string
	modules []Module
	router  chi.Router
	server  http.Server
	conn    net.Listener
}

// MakeMgmtThread creates a new management server for r listening on bind.
func MakeMgmtThread(r *repo.Repository, bind string) *Thread {
	m := &Thread{repo: r, bind: bind}
	m.router = chi.NewRouter()
	m.router.Use(m.logRequests)
	m.registerModule(&RepositoryStatusModule{})
	m.registerModule(&ContentStoreModule{})
	m.registerModule(&FaceModule{})
	m.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		core.LogWarn(m, "Received request for non-existent resource '", r.URL.Path, "'")
		sendResponse(m, w, makeControlResponse(http.StatusNotImplemented, "Unknown verb", nil))
	})
	m.server = http.Server{Handler: m.router, ReadHeaderTimeout: 10 * time.Second}
	return m
}

func (m *Thread) String() string {
	return "Management"
}

func (m *Thread) registerModule(module Module) {
	module.registerManager(m)
	module.mount(m.router)
	m.modules = append(m.modules, module)
}

func (m *Thread) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		core.LogTrace(m, "Received management request ", r.Method, " ", r.URL)
		next.ServeHTTP(w, r)
	})
}

// Handler returns the HTTP handler serving every management module.
func (m *Thread) Handler() http.Handler {
	return m.router
}

// Listen binds the management socket.
func (m *Thread) Listen() error {
	var err error
	if m.conn, err = net.Listen("tcp", m.bind); err != nil {
		return err
	}
	core.LogInfo(m, "Listening on ", m.conn.Addr())
	return nil
}

// Run serves management requests until Close is called.
func (m *Thread) Run() error {
	if err := m.server.Serve(m.conn); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close stops the management server.
func (m *Thread) Close() error {
	return m.server.Close()
}
