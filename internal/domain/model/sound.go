package model

// Message is one decoded inbound message: an address plus its arguments.
type Message struct {
	Path   string // OSC address, e.g. "/query"
	Args   []any  // decoded arguments; the keyword is Args[0]
	Source string // sender address, for logging
}

// Candidate is one search result. It only lives for one pipeline run.
type Candidate struct {
	ID       string  // remote identifier, may be empty
	Name     string  // display name, used as the sound file name
	Locator  string  // URL of the chosen audio encoding
	Encoding string  // encoding tag of Locator
	Duration float64 // seconds, 0 when unknown
	Rating   float64 // provider rating, 0 when unknown
	Provider string  // search provider that produced it
}

// Sound is a candidate resolved to its place in the sound store.
type Sound struct {
	Candidate Candidate
	Path      string // <sound dir>/<name>.mp3
	Cached    bool   // file already existed, no download happened
}
