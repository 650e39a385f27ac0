package search

import (
	"strconv"
	"strings"
)

// Query represents the structured parameters for a message search.
// It decouples the raw user input from the index engine requirements.
type Query struct {
	RawInput string // The original query string
	Terms    string // The actual text to search in the content field
	RoomID   string // Restrict results to one room
	Limit    int    // Number of results
}

const defaultLimit = 10

// NewQuery parses a raw string to extract command-line style arguments.
// Example: invoice unpaid --room 3f2a... --limit 25
func NewQuery(input string) *Query {
	query := &Query{
		RawInput: input,
		Limit:    defaultLimit,
	}

	parts := strings.Fields(input)
	var textTerms []string

	for i := 0; i < len(parts); i++ {
		part := parts[i]

		if strings.HasPrefix(part, "--") && i+1 < len(parts) {
			key := strings.TrimPrefix(part, "--")
			val := parts[i+1]

			switch key {
			case "room":
				query.RoomID = val
			case "limit":
				if limit, err := strconv.Atoi(val); err == nil && limit > 0 {
					query.Limit = limit
				}
			}
			i++ // Skip the value part in next iteration
			continue
		}

		textTerms = append(textTerms, part)
	}

	query.Terms = strings.Join(textTerms, " ")
	return query
}
