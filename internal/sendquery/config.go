package sendquery

import "time"

// Config holds what to send and where.
type Config struct {
	Host      string        // daemon host for OSC
	Port      int           // daemon UDP port
	QueryPath string        // OSC address for queries
	QuitPath  string        // OSC address that stops the daemon
	Keywords  []string      // one query per keyword, in order
	Quit      bool          // send a quit message after the queries
	Interval  time.Duration // pause between messages
	WSURL     string        // send through the admin websocket instead of OSC
	Timeout   time.Duration // websocket dial and ack timeout
}

// Stats counts what happened.
type Stats struct {
	Sent     int
	Acked    int
	Rejected int
}
