package domain

// KeyPrefix namespaces every key the service writes to the shared store.
const KeyPrefix = "jobmatch:"

// Cache invalidation tags published by the indexing pipeline.
const (
	TagSearch   = "jobs:search"
	TagSuggest  = "jobs:suggest"
	TagTrending = "jobs:trending"
)

// JobTag returns the invalidation tag for a single job.
func JobTag(id string) string { return "job:" + id }

// CategoryTag returns the invalidation tag for every cached list scoped to a category.
func CategoryTag(id string) string { return "jobs:category:" + id }
