package registry

import "fmt"

// freshID draws identifiers from next until one is not taken.
func freshID(next func() string, taken func(string) bool) (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id := next()
		if id != "" && !taken(id) {
			return id, nil
		}
	}
	return "", fmt.Errorf("no fresh identifier after %d attempts", maxIDAttempts)
}
