/*
Package server implements msgpack IPC for pattern matching.

The server reads msgpack messages from an input stream (stdin by default) and
writes one msgpack response per request to an output stream (stdout). Log
output goes to stderr so it never interleaves with responses.

# IPC

Every request carries an ID that is echoed in its response. A request without
an action is a match request:

	{"id": "req_001", "n": 5, "p": "c__t_", "l": 20}

"n" is the word length and "p" the pattern, one cell per letter with '_' for
unknown positions. "o" and "l" page through the matches. The response holds
the page, the total count, how many matches follow the page and the time
taken in microseconds:

	{"id": "req_001", "w": ["caste", "chats", "charm"], "c": 3, "r": 0, "t": 41}

Index management uses the action field:

	{"id": "idx_001", "action": "info"}
	{"id": "idx_002", "action": "reload"}
	{"id": "idx_003", "action": "stats"}

Failed requests get an error message with a code: 400 for invalid input,
404 when no index is loaded and 500 for internal failures.

# Config

When started with a config path the server watches the file and applies the
[server] limits and the [cache] size without a restart.
*/
package server

import "github.com/bastiangx/wordmask/pkg/dictionary"

// Request actions.
const (
	ActionMatch  = "match"
	ActionInfo   = "info"
	ActionReload = "reload"
	ActionStats  = "stats"
)

// Error codes carried by ErrorResponse.
const (
	CodeBadRequest = 400
	CodeNoIndex    = 404
	CodeInternal   = 500
)

// Request is any client message. Action is empty or "match" for match
// requests.
type Request struct {
	ID      string `msgpack:"id"`
	Action  string `msgpack:"action,omitempty"`
	Length  int    `msgpack:"n,omitempty"`
	Pattern string `msgpack:"p,omitempty"`
	Offset  int    `msgpack:"o,omitempty"`
	Limit   int    `msgpack:"l,omitempty"`
}

// MatchResponse holds one page of matches.
type MatchResponse struct {
	ID        string   `msgpack:"id"`
	Words     []string `msgpack:"w"`
	Count     int      `msgpack:"c"`
	Remaining int      `msgpack:"r"`
	TimeTaken int64    `msgpack:"t"`
}

// IndexResponse answers info and reload requests.
type IndexResponse struct {
	ID         string                  `msgpack:"id"`
	Status     string                  `msgpack:"status"`
	Generation uint64                  `msgpack:"generation"`
	Lengths    []dictionary.LengthInfo `msgpack:"lengths,omitempty"`
	Error      string                  `msgpack:"error,omitempty"`
}

// StatsResponse carries matcher counters.
type StatsResponse struct {
	ID    string         `msgpack:"id"`
	Stats map[string]int `msgpack:"stats"`
}

// ErrorResponse holds basic error information for a failed request
type ErrorResponse struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}
