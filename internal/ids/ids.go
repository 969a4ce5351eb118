// Package ids generates entity identifiers. KSUIDs are time-ordered with a
// random payload, so ids sort by creation time and collide only in theory.
package ids

import "github.com/segmentio/ksuid"

func New() string {
	return ksuid.New().String()
}
