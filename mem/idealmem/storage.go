package idealmem

// Storage is a sparse word-addressed backing store. Addresses wrap at the
// capacity.
type Storage struct {
	capacity uint64
	words    map[uint64]uint64
}

// NewStorage creates a storage that holds capacity words.
func NewStorage(capacity uint64) *Storage {
	if capacity == 0 {
		panic("idealmem: storage capacity must be positive")
	}

	return &Storage{
		capacity: capacity,
		words:    make(map[uint64]uint64),
	}
}

// Read returns the word at addr. Unwritten words read as 0.
func (s *Storage) Read(addr uint64) uint64 {
	return s.words[addr%s.capacity]
}

// Write stores a word at addr.
func (s *Storage) Write(addr, data uint64) {
	s.words[addr%s.capacity] = data
}

// Capacity returns the number of words.
func (s *Storage) Capacity() uint64 {
	return s.capacity
}
