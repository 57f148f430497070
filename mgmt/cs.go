/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package mgmt

import (
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/named-data/ndnrepo/core"
	"github.com/named-data/ndnrepo/ndn"
	"github.com/named-data/ndnrepo/repo"
)

// defaultListLimit bounds enumerations that do not carry a limit.
const defaultListLimit = 100

// ContentStoreModule is the module that queries and maintains stored content.
type ContentStoreModule struct {
	manager *Thread
}

// ContentEntry describes a stored content object.
type ContentEntry struct {
	Name        string     `json:"name"`
	Digest      string     `json:"digest"`
	ContentType string     `json:"contentType,omitempty"`
	Publisher   string     `json:"publisher,omitempty"`
	SigningTime *time.Time `json:"signingTime,omitempty"`
	Content     []byte     `json:"content,omitempty"`
}

func (c *ContentStoreModule) String() string {
	return "ContentStoreMgmt"
}

func (c *ContentStoreModule) registerManager(manager *Thread) {
	c.manager = manager
}

func (c *ContentStoreModule) getManager() *Thread {
	return c.manager
}

func (c *ContentStoreModule) mount(r chi.Router) {
	r.Get("/content", c.query)
	r.Delete("/content", c.erase)
	r.Get("/content/list", c.list)
}

// parseInterest builds the Interest described by the query parameters name,
// order, minSuffix, maxSuffix, publisher and digest.
func parseInterest(r *http.Request) (*ndn.Interest, error) {
	query := r.URL.Query()
	name, err := ndn.NameFromString(query.Get("name"))
	if err != nil {
		return nil, err
	}
	order, err := ndn.ParseOrder(query.Get("order"))
	if err != nil {
		return nil, err
	}

	opts := []ndn.InterestOption{ndn.WithOrder(order)}
	if n, ok, err := queryInt(r, "minSuffix"); err != nil {
		return nil, err
	} else if ok {
		opts = append(opts, ndn.WithMinSuffixComponents(n))
	}
	if n, ok, err := queryInt(r, "maxSuffix"); err != nil {
		return nil, err
	} else if ok {
		opts = append(opts, ndn.WithMaxSuffixComponents(n))
	}
	if publisher, err := queryHex(r, "publisher"); err != nil {
		return nil, err
	} else if publisher != nil {
		opts = append(opts, ndn.WithPublisher(publisher))
	}
	if digest, err := queryHex(r, "digest"); err != nil {
		return nil, err
	} else if digest != nil {
		opts = append(opts, ndn.WithContentDigest(digest))
	}
	return ndn.NewInterest(name, opts...), nil
}

func (c *ContentStoreModule) query(w http.ResponseWriter, r *http.Request) {
	interest, err := parseInterest(r)
	if err != nil {
		core.LogWarn(c, "Malformed content query: ", err)
		sendResponse(c, w, makeControlResponse(http.StatusBadRequest, "Query is incorrect", nil))
		return
	}

	obj, err := c.manager.repo.GetContent(interest)
	switch {
	case errors.Is(err, repo.ErrRepositoryNotFound):
		sendResponse(c, w, makeControlResponse(http.StatusNotFound, "No matching content", nil))
		return
	case err != nil:
		core.LogError(c, "Unable to look up ", interest, ": ", err)
		sendResponse(c, w, makeControlResponse(http.StatusInternalServerError, "Internal error", nil))
		return
	}

	if r.URL.Query().Get("format") == "wire" {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.WriteHeader(http.StatusOK)
		w.Write(obj.Wire())
		return
	}

	entry := &ContentEntry{
		Name:        obj.Name().String(),
		Digest:      hex.EncodeToString(obj.Digest()),
		ContentType: obj.ContentType().String(),
		Content:     obj.Content(),
	}
	if signingTime := obj.MetaInfo().SigningTime; !signingTime.IsZero() {
		entry.SigningTime = &signingTime
	}
	if publisher := obj.Publisher(); publisher != nil {
		entry.Publisher = hex.EncodeToString(publisher)
	}
	sendResponse(c, w, makeControlResponse(http.StatusOK, "OK", entry))
}

func (c *ContentStoreModule) erase(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	nameStr, prefixStr := query.Get("name"), query.Get("prefix")
	if (nameStr == "") == (prefixStr == "") {
		sendResponse(c, w, makeControlResponse(http.StatusBadRequest, "Exactly one of name and prefix is required", nil))
		return
	}

	var removed int
	if nameStr != "" {
		name, err := ndn.NameFromString(nameStr)
		if err != nil {
			sendResponse(c, w, makeControlResponse(http.StatusBadRequest, "Name is incorrect", nil))
			return
		}
		if removed, err = c.manager.repo.Remove(name); err != nil {
			core.LogError(c, "Unable to remove ", name, ": ", err)
			sendResponse(c, w, makeControlResponse(http.StatusInternalServerError, "Internal error", nil))
			return
		}
	} else {
		prefix, err := ndn.NameFromString(prefixStr)
		if err != nil {
			sendResponse(c, w, makeControlResponse(http.StatusBadRequest, "Prefix is incorrect", nil))
			return
		}
		if removed, err = c.manager.repo.RemovePrefix(prefix); err != nil {
			core.LogError(c, "Unable to remove ", prefix, ": ", err)
			sendResponse(c, w, makeControlResponse(http.StatusInternalServerError, "Internal error", nil))
			return
		}
	}
	sendResponse(c, w, makeControlResponse(http.StatusOK, "OK", map[string]int{"removed": removed}))
}

func (c *ContentStoreModule) list(w http.ResponseWriter, r *http.Request) {
	prefix, err := ndn.NameFromString(r.URL.Query().Get("prefix"))
	if err != nil {
		sendResponse(c, w, makeControlResponse(http.StatusBadRequest, "Prefix is incorrect", nil))
		return
	}
	limit, ok, err := queryInt(r, "limit")
	if err != nil {
		sendResponse(c, w, makeControlResponse(http.StatusBadRequest, "Limit is incorrect", nil))
		return
	}
	if !ok {
		limit = defaultListLimit
	}

	records, err := c.manager.repo.Enumerate(prefix, limit)
	if err != nil {
		core.LogError(c, "Unable to enumerate ", prefix, ": ", err)
		sendResponse(c, w, makeControlResponse(http.StatusInternalServerError, "Internal error", nil))
		return
	}

	entries := make([]ContentEntry, 0, len(records))
	for _, record := range records {
		entries = append(entries, ContentEntry{
			Name:   record.Name.String(),
			Digest: hex.EncodeToString(record.Digest),
		})
	}
	sendResponse(c, w, makeControlResponse(http.StatusOK, "OK", entries))
}
