package movie

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// ID is the TMDB movie identifier. It is the one identifier type used at the
// persistence boundary, so numeric and string forms compare equal once parsed.
type ID int

// ParseID parses a movie identifier from user input such as a CLI argument.
func ParseID(s string) (ID, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid movie id %q: %w", s, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid movie id %q: must be positive", s)
	}
	return ID(n), nil
}

// String returns the decimal form of the identifier
func (id ID) String() string {
	return strconv.Itoa(int(id))
}

// Valid reports whether the identifier refers to a movie
func (id ID) Valid() bool {
	return id > 0
}

// UnmarshalJSON accepts both 42 and "42"; older watchlists stored ids as strings.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		unquoted, err := strconv.Unquote(string(data))
		if err != nil {
			return fmt.Errorf("movie id: %w", err)
		}
		if unquoted == "" {
			*id = 0
			return nil
		}
		data = []byte(unquoted)
	}
	n, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("movie id %s: %w", data, err)
	}
	if n != float64(int(n)) {
		return fmt.Errorf("movie id %s: not an integer", data)
	}
	*id = ID(int(n))
	return nil
}
