/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package mgmt

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/named-data/ndnrepo/core"
)

// ControlResponse is the body of every management response.
type ControlResponse struct {
	StatusCode int    `json:"statusCode"`
	StatusText string `json:"statusText"`
	Body       any    `json:"body,omitempty"`
}

func makeControlResponse(statusCode int, statusText string, body any) *ControlResponse {
	return &ControlResponse{StatusCode: statusCode, StatusText: statusText, Body: body}
}

func sendResponse(module fmt.Stringer, w http.ResponseWriter, response *ControlResponse) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(response.StatusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		core.LogWarn(module, "Unable to encode response: ", err)
	}
}

// queryInt reads an optional non-negative integer query parameter.
func queryInt(r *http.Request, key string) (int, bool, error) {
	str := r.URL.Query().Get(key)
	if str == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(str)
	if err != nil || n < 0 {
		return 0, false, strconv.ErrSyntax
	}
	return n, true, nil
}

// queryHex reads an optional hex-encoded query parameter.
func queryHex(r *http.Request, key string) ([]byte, error) {
	str := r.URL.Query().Get(key)
	if str == "" {
		return nil, nil
	}
	return hex.DecodeString(str)
}
