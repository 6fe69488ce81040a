package store

import "fmt"

// LoadResult tracks counts and errors from a load operation.
type LoadResult struct {
	Read     int
	Kept     int
	Upserted int
	Skipped  int
	Groups   int
	Errors   []string
}

// Add merges another LoadResult into this one.
func (r *LoadResult) Add(other LoadResult) {
	r.Read += other.Read
	r.Kept += other.Kept
	r.Upserted += other.Upserted
	r.Skipped += other.Skipped
	r.Groups += other.Groups
	r.Errors = append(r.Errors, other.Errors...)
}

// AddErrorf records a formatted error message.
func (r *LoadResult) AddErrorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Summary returns a human-readable summary of the load.
func (r *LoadResult) Summary() string {
	return fmt.Sprintf(
		"read=%d kept=%d upserted=%d skipped=%d groups=%d errors=%d",
		r.Read, r.Kept, r.Upserted, r.Skipped, r.Groups, len(r.Errors),
	)
}
