// Package share encodes sanitized projects into self-contained viewer links
// and back. The payload is base64url JSON carried in the URL fragment so it
// never reaches a server log.
package share

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/invitio/invitio/backend-go/internal/document"
)

const (
	// SoftURLLimit is the full-URL length above which some chat apps stop
	// linkifying; callers surface a warning but the link still works.
	SoftURLLimit = 3500

	// HardPayloadLimit is the encoded-payload length above which encoding
	// fails outright.
	HardPayloadLimit = 8000
)

// ErrPayloadTooLarge is returned when the encoded payload exceeds the hard
// limit.
var ErrPayloadTooLarge = fmt.Errorf("share: payload exceeds %d bytes", HardPayloadLimit)

// EncodeState sanitizes the project and encodes it as base64url JSON.
func EncodeState(p *document.Project) (string, error) {
	safe := document.SafeForShare(p)
	if safe == nil {
		return "", fmt.Errorf("share: nil project")
	}
	data, err := json.Marshal(safe)
	if err != nil {
		return "", fmt.Errorf("share: encode: %w", err)
	}
	payload := base64.RawURLEncoding.EncodeToString(data)
	if len(payload) > HardPayloadLimit {
		return "", ErrPayloadTooLarge
	}
	return payload, nil
}

// DecodeState decodes a share payload back into a project. It tolerates
// standard and padded base64 variants, since links get mangled in transit.
func DecodeState(payload string) (*document.Project, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, fmt.Errorf("share: empty payload")
	}

	data, err := decodeBase64(payload)
	if err != nil {
		return nil, fmt.Errorf("share: decode: %w", err)
	}
	var p document.Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("share: decode: %w", err)
	}
	return &p, nil
}

func decodeBase64(s string) ([]byte, error) {
	for _, enc := range []*base64.Encoding{
		base64.RawURLEncoding,
		base64.URLEncoding,
		base64.RawStdEncoding,
		base64.StdEncoding,
	} {
		if data, err := enc.DecodeString(s); err == nil {
			return data, nil
		}
	}
	return nil, fmt.Errorf("not valid base64 in any accepted variant")
}

// BuildViewerURL assembles the share link: <origin>/?view=1#d=<payload>.
// Crossing the soft limit logs a warning so the UI can tell the user the
// link may not survive every messenger.
func BuildViewerURL(origin string, p *document.Project, logger *slog.Logger) (string, error) {
	payload, err := EncodeState(p)
	if err != nil {
		return "", err
	}
	u := strings.TrimRight(origin, "/") + "/?view=1#d=" + payload
	if len(u) > SoftURLLimit && logger != nil {
		logger.Warn("share link exceeds soft length limit", "length", len(u), "limit", SoftURLLimit)
	}
	return u, nil
}

// ViewerPayloadFromURL extracts the share payload from a viewer URL. The
// fragment form (#d=) is canonical; the query form (?d=) is accepted for
// links re-encoded by intermediaries.
func ViewerPayloadFromURL(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if frag := u.Fragment; frag != "" {
		if vals, err := url.ParseQuery(frag); err == nil {
			if d := vals.Get("d"); d != "" {
				return d, true
			}
		}
		if rest, ok := strings.CutPrefix(frag, "d="); ok && rest != "" {
			return rest, true
		}
	}
	if d := u.Query().Get("d"); d != "" {
		return d, true
	}
	return "", false
}
