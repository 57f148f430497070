/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package repo

import (
	"errors"
	"time"

	"github.com/named-data/ndnrepo/core"
	"github.com/named-data/ndnrepo/ndn"
	"github.com/named-data/ndnrepo/table"
)

func (r *Repository) submit(registration uint64, fn func() error) {
	if err := r.dispatcher.Submit(registration, fn); err != nil {
		core.LogWarn(r, "Dropped notification for registration ", registration, ": ", err)
	}
}

// deliverContent schedules a one-shot delivery. A follow-up Interest returned
// by the listener becomes the next registration of the same handle.
func (r *Repository) deliverContent(id uint64, handle *Handle, interest *ndn.Interest, obj *ndn.ContentObject) {
	if handle == nil || handle.listener == nil {
		return
	}
	r.submit(id, func() error {
		followUp, err := handle.OnContentArrived([]*ndn.ContentObject{obj}, interest)
		if followUp != nil {
			switch expressErr := r.express(handle, followUp); {
			case expressErr == nil:
				r.measures.add(measureFollowUps, 1)
			case errors.Is(expressErr, errHandleStopped), errors.Is(expressErr, ErrClosed):
				core.LogTrace(r, "Dropped follow-up ", followUp, " of canceled registration ", id)
			default:
				core.LogWarn(r, "Unable to re-express ", followUp, ": ", expressErr)
			}
		}
		return err
	})
}

// filterFlusher returns the function delivering a batch to a standing filter.
// The state check runs on the delivery thread, after any cancellation notice queued before it.
func (r *Repository) filterFlusher(filter *table.PitEntry) func([]*ndn.ContentObject) {
	return func(objects []*ndn.ContentObject) {
		r.submit(filter.ID(), func() error {
			if !filter.IsPending() {
				return nil
			}
			r.measures.add(measureFiltered, len(objects))
			followUp, err := filter.Listener.OnContentArrived(objects, filter.Interest())
			if followUp != nil {
				core.LogDebug(r, "Ignoring follow-up ", followUp, " from standing ", filter)
			}
			return err
		})
	}
}

func (r *Repository) notifyCanceled(entry *table.PitEntry) {
	if entry.Kind() == table.KindProducer || entry.Listener == nil {
		return
	}
	r.submit(entry.ID(), func() error {
		entry.Listener.OnInterestCanceled(entry.Interest())
		return nil
	})
}

func (r *Repository) notifyProducers(interest *ndn.Interest) {
	for _, producer := range r.pit.FindProducers(interest.Name()) {
		r.measures.add(measureProducedTo, 1)
		r.submit(producer.ID(), func() error {
			if !producer.IsPending() {
				return nil
			}
			n := producer.Producer.OnInterestsArrived([]*ndn.Interest{interest})
			core.LogTrace(r, producer, " will answer ", n, " of 1 Interests")
			return nil
		})
	}
}

// runExpiry cancels Interests whose lifetime ended, sweeping every interval.
func (r *Repository) runExpiry(interval time.Duration) {
	defer close(r.expiryDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			r.expire(now)
		case <-r.stopExpiry:
			return
		}
	}
}

func (r *Repository) expire(now time.Time) {
	for _, entry := range r.pit.PopExpired(now) {
		if !entry.Expire() {
			continue
		}
		r.measures.add(measureExpired, 1)
		core.LogDebug(r, "Expired ", entry)
		r.notifyCanceled(entry)
	}
}
