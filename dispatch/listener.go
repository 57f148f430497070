/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package dispatch

import "github.com/named-data/ndnrepo/ndn"

// ContentListener receives content for an expressed Interest or a standing filter.
type ContentListener interface {
	// OnContentArrived receives matching objects in name order. Returning a
	// non-nil Interest re-arms a one-shot registration with it.
	OnContentArrived(objects []*ndn.ContentObject, interest *ndn.Interest) (*ndn.Interest, error)
	// OnInterestCanceled is called once when a registration is canceled or expires without being satisfied.
	OnInterestCanceled(interest *ndn.Interest)
}

// InterestListener is implemented by producers serving a name subtree.
type InterestListener interface {
	// OnInterestsArrived receives Interests that could not be satisfied from the store
	// and returns how many of them the producer will answer.
	OnInterestsArrived(interests []*ndn.Interest) int
}

// ContentListenerFuncs adapts a pair of functions to ContentListener. Either may be nil.
type ContentListenerFuncs struct {
	Arrived  func(objects []*ndn.ContentObject, interest *ndn.Interest) (*ndn.Interest, error)
	Canceled func(interest *ndn.Interest)
}

// OnContentArrived calls Arrived.
func (f ContentListenerFuncs) OnContentArrived(objects []*ndn.ContentObject, interest *ndn.Interest) (*ndn.Interest, error) {
	if f.Arrived == nil {
		return nil, nil
	}
	return f.Arrived(objects, interest)
}

// OnInterestCanceled calls Canceled.
func (f ContentListenerFuncs) OnInterestCanceled(interest *ndn.Interest) {
	if f.Canceled != nil {
		f.Canceled(interest)
	}
}

// InterestListenerFunc adapts a function to InterestListener.
type InterestListenerFunc func(interests []*ndn.Interest) int

// OnInterestsArrived calls f.
func (f InterestListenerFunc) OnInterestsArrived(interests []*ndn.Interest) int {
	return f(interests)
}
