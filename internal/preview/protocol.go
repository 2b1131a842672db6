// Package preview pushes live document updates from the editing host to
// anyone watching the same invitation, over one-way broadcast rooms. It is
// not a collaborative editor: watchers never write the document back.
package preview

import "encoding/json"

const (
	// TypeDocSync carries a full serialized project after a host edit.
	TypeDocSync = "doc.sync"

	// TypeSlideChange announces the host switching slides so watchers
	// follow along.
	TypeSlideChange = "slide.change"

	// TypeWatchers reports the current audience size to the host.
	TypeWatchers = "watchers"
)

type Message struct {
	Type      string          `json:"type"`
	ProjectID string          `json:"projectId,omitempty"`
	ClientID  string          `json:"clientId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type SlideChangePayload struct {
	ActiveIndex int `json:"activeIndex"`
}

type WatchersPayload struct {
	Count int `json:"count"`
}
