package content

import "strings"

// wordsPerMinute is the assumed adult reading speed.
const wordsPerMinute = 200

// EstimateReadTime returns the read time for a post body in whole minutes.
// Any non-empty body reads for at least one minute.
func EstimateReadTime(body string) int {
	words := len(strings.Fields(body))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}
