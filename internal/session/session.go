package session

import "encoding/json"

// Session is one authenticated device or browser instance. The payload key in
// Redis is authoritative for validity; the owner's index entry is only an
// access path and may lag behind (see reconcile).
type Session struct {
	SID       string `json:"sid"`
	UserID    string `json:"userId"`
	UserAgent string `json:"ua"`
	IP        string `json:"ip"`
}

// Metadata captures the request attributes recorded at login.
type Metadata struct {
	IP        string
	UserAgent string
}

// decodeSession deserializes a stored payload and checks its shape. Anything
// that does not decode into a well-formed Session is rejected so that
// residual entries from an older payload format read as absent instead of
// surfacing a parse error.
func decodeSession(data []byte) (*Session, error) {
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}
	if sess.SID == "" || sess.UserID == "" {
		return nil, errMalformedPayload
	}
	return &sess, nil
}

// reconcile partitions an index read against the bulk-fetched payloads.
// fetched[i] is the MGET result for ids[i]: a string payload, or nil when the
// key no longer exists. Ids whose payload is missing or no longer decodes are
// returned as stale so the caller can prune them from the index.
func reconcile(ids []string, fetched []interface{}) (live []*Session, stale []string) {
	live = make([]*Session, 0, len(ids))
	for i, id := range ids {
		raw, ok := fetched[i].(string)
		if !ok {
			stale = append(stale, id)
			continue
		}
		sess, err := decodeSession([]byte(raw))
		if err != nil {
			stale = append(stale, id)
			continue
		}
		live = append(live, sess)
	}
	return live, stale
}
