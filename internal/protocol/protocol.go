// Package protocol defines the engine wire protocol: newline-delimited
// UTF-8 JSON documents over the subprocess stdio pipes. Every outbound
// message is an envelope carrying exactly one request kind; inbound
// messages are flat JSON objects decoded into Response.
package protocol

import (
	"encoding/json"
)

// DefaultVersion is the engine protocol version sent in every envelope
// unless the session overrides it.
const DefaultVersion = "4.4.223"

// Envelope wraps a request with the protocol version.
type Envelope struct {
	Version string  `json:"version"`
	Request Request `json:"request"`
}

// Request carries exactly one request kind. The engine keys on the
// field name, so only one pointer may be non-nil.
type Request struct {
	Autocomplete       *AutocompleteRequest       `json:"Autocomplete,omitempty"`
	Prefetch           *PrefetchRequest           `json:"Prefetch,omitempty"`
	GetIdentifierRegex *GetIdentifierRegexRequest `json:"GetIdentifierRegex,omitempty"`
	State              *StateRequest              `json:"State,omitempty"`
	Workspace          *WorkspaceRequest          `json:"Workspace,omitempty"`
	Configuration      *ConfigurationRequest      `json:"Configuration,omitempty"`
}

// Kind returns the name of the populated request kind, or "" when the
// request is empty.
func (r Request) Kind() string {
	switch {
	case r.Autocomplete != nil:
		return "Autocomplete"
	case r.Prefetch != nil:
		return "Prefetch"
	case r.GetIdentifierRegex != nil:
		return "GetIdentifierRegex"
	case r.State != nil:
		return "State"
	case r.Workspace != nil:
		return "Workspace"
	case r.Configuration != nil:
		return "Configuration"
	default:
		return ""
	}
}

// AutocompleteRequest asks the engine for completions at a cursor
// position. Before and After hold the buffer text surrounding the
// cursor, clamped to the configured context window.
type AutocompleteRequest struct {
	Before                  string `json:"before"`
	After                   string `json:"after"`
	Filename                string `json:"filename"`
	RegionIncludesBeginning bool   `json:"region_includes_beginning"`
	RegionIncludesEnd       bool   `json:"region_includes_end"`
	MaxNumResults           int    `json:"max_num_results"`
	CorrelationID           int64  `json:"correlation_id"`
}

// PrefetchRequest warms the engine's model for a file.
type PrefetchRequest struct {
	Filename string `json:"filename"`
}

// GetIdentifierRegexRequest asks for the identifier pattern the engine
// uses for a file type.
type GetIdentifierRegexRequest struct {
	Filename string `json:"filename"`
}

// StateRequest queries engine state. The engine requires a non-empty
// object, hence the dummy field.
type StateRequest struct {
	Dummy bool `json:"dummy"`
}

// WorkspaceRequest reports the open project root paths.
type WorkspaceRequest struct {
	RootPaths []string `json:"root_paths"`
}

// ConfigurationRequest asks for the configuration hub URL.
type ConfigurationRequest struct {
	Quiet bool `json:"quiet"`
}

// Candidate is one proposed completion, expressed as a prefix/suffix
// replacement pair relative to the cursor.
type Candidate struct {
	OldPrefix string `json:"old_prefix"`
	NewPrefix string `json:"new_prefix"`
	OldSuffix string `json:"old_suffix"`
	NewSuffix string `json:"new_suffix"`
}

// Response is the union of fields across all inbound message kinds.
// Fields irrelevant to a given request kind are simply zero.
type Response struct {
	// Autocomplete
	Results       []Candidate `json:"results"`
	CorrelationID int64       `json:"correlation_id"`

	// User-facing messages the engine wants surfaced.
	UserMessage []string `json:"user_message"`

	// State
	UserName string `json:"user_name"`

	// Configuration: a URL to the configuration hub.
	Message string `json:"message"`
}

// Encode serializes an envelope to its wire form, including the frame
// terminator.
func Encode(version string, req Request) ([]byte, error) {
	data, err := json.Marshal(Envelope{Version: version, Request: req})
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Decode parses a frame into a Response. Malformed input yields nil
// rather than an error: a frame that cannot be decoded is treated as if
// it never arrived.
func Decode(frame []byte) *Response {
	if len(frame) == 0 {
		return nil
	}
	var resp Response
	if err := json.Unmarshal(frame, &resp); err != nil {
		return nil
	}
	return &resp
}
