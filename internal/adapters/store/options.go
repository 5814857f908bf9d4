package store

// Dedup strategies for mapping a candidate to a file name.
const (
	DedupByName = "name"
	DedupByID   = "id"
)

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithDedup selects how candidates map to file names. Unknown strategies are ignored.
func WithDedup(strategy string) Option {
	return func(s *Store) {
		switch strategy {
		case DedupByName, DedupByID:
			s.dedup = strategy
		}
	}
}

// WithExtension overrides the file extension, ".mp3" by default.
func WithExtension(ext string) Option {
	return func(s *Store) {
		if ext != "" {
			s.ext = ext
		}
	}
}
