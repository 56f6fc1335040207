package domain

import "strconv"

// cleanIDMaxLen caps cleaned identifiers so backends with id length limits
// accept them.
const cleanIDMaxLen = 100

// CleanID maps s onto the store-safe alphabet [A-Za-z0-9_-], replacing every
// other character (including multi-byte runes) with '_', and truncates the
// result to 100 characters. The output is safe to use as a store id for any
// input, including paths, spaces and unicode.
func CleanID(s string) string {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9',
			r == '_', r == '-':
			out = append(out, byte(r))
		default:
			out = append(out, '_')
		}
		if len(out) == cleanIDMaxLen {
			break
		}
	}
	return string(out)
}

// EntryID builds the identity key for a chunk: CleanID(docID) + "_" + index.
// Two chunks collide only if their cleaned doc ids and indexes both collide.
func EntryID(docID string, index int) string {
	return CleanID(docID) + "_" + strconv.Itoa(index)
}
