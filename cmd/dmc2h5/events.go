// dmc-converter - convert raw DMC auroral camera video to image stacks
//  Copyright (C) 2020, The Cacophony Project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.


package main

import (
	"encoding/json"
	"log"
	"time"

	"github.com/godbus/dbus"
)

const (
	eventsName   = "org.cacophony.Events"
	eventsPath   = "/org/cacophony/Events"
	eventsMethod = "org.cacophony.Events.Queue"
)

// eventRecorder is told about every file a batch finishes.
type eventRecorder interface {
	Converted(in, out string, frames int64, at time.Time)
	Failed(in string, err error, at time.Time)
}

// dbusEventRecorder queues conversion events with the event service
// so they are reported along with the device's other events.
type dbusEventRecorder struct {
	queue func(details []byte, ts int64) error
}

func newDBusEventRecorder() *dbusEventRecorder {
	return &dbusEventRecorder{queue: queueEvent}
}

func (er *dbusEventRecorder) Converted(in, out string, frames int64, at time.Time) {
	er.record("dmcConverted", map[string]interface{}{
		"input":  in,
		"output": out,
		"frames": frames,
	}, at)
}

func (er *dbusEventRecorder) Failed(in string, err error, at time.Time) {
	er.record("dmcConvertFailed", map[string]interface{}{
		"input": in,
		"error": err.Error(),
	}, at)
}

func (er *dbusEventRecorder) record(eventType string, details map[string]interface{}, at time.Time) {
	details["type"] = eventType
	eventDetails := map[string]interface{}{
		"description": details,
	}
	detailsJSON, err := json.Marshal(&eventDetails)
	if err != nil {
		log.Printf("could not record %s event: %s", eventType, err)
		return
	}
	if err := er.queue(detailsJSON, at.UnixNano()); err != nil {
		log.Printf("could not record %s event: %s", eventType, err)
	}
}

func queueEvent(details []byte, ts int64) error {
	conn, err := dbus.SystemBus()
	if err != nil {
		return err
	}
	obj := conn.Object(eventsName, eventsPath)
	return obj.Call(eventsMethod, 0, details, ts).Err
}
