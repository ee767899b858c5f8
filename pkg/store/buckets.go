package store

// The following are the names of buckets in the database.
const (
	bucketCmd     = "cmd"
	bucketSession = "session"
)
