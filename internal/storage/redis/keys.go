package redis

import "fmt"

// Default key prefix for all catalog data
const defaultKeyPrefix = "gameshelf"

// collectionKey returns the Redis LIST holding a collection's records
func collectionKey(prefix, collection string) string {
	return fmt.Sprintf("%s:collection:%s", prefix, collection)
}
