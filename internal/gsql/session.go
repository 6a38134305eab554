package gsql

import (
	"encoding/json"
	"fmt"
)

// Session is the console state carried between requests through the cookie header.
type Session struct {
	Token      string
	Graph      string
	Properties string
}

// cookiePayload is the JSON object sent in the Cookie header of every console request.
type cookiePayload struct {
	FromGsqlClient  bool   `json:"fromGsqlClient"`
	FromGraphStudio bool   `json:"fromGraphStudio"`
	Graph           string `json:"graph,omitempty"`
	Session         string `json:"session,omitempty"`
	Properties      string `json:"properties,omitempty"`
	CommitClient    string `json:"commitClient,omitempty"`
	// ClientCommit is only used by the login endpoint.
	ClientCommit string `json:"clientCommit,omitempty"`
}

func (s Session) cookie(commit string) cookiePayload {
	return cookiePayload{
		FromGsqlClient:  true,
		FromGraphStudio: true,
		Graph:           s.Graph,
		Session:         s.Token,
		Properties:      s.Properties,
		CommitClient:    commit,
	}
}

func loginCookie(commit string) cookiePayload {
	return cookiePayload{
		FromGsqlClient:  true,
		FromGraphStudio: true,
		ClientCommit:    commit,
	}
}

func (c cookiePayload) header() (string, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode cookie: %w", err)
	}
	return string(raw), nil
}

// sessionFromCookie decodes a server-emitted cookie. Fields absent from the
// payload come back empty; nothing is carried over from the previous session.
func sessionFromCookie(raw string) (Session, error) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return Session{}, fmt.Errorf("%w: cookie %q: %v", ErrProtocol, raw, err)
	}
	return Session{
		Token:      stringField(fields["session"]),
		Graph:      stringField(fields["graph"]),
		Properties: stringField(fields["properties"]),
	}, nil
}

func stringField(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		raw, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(raw)
	}
}
