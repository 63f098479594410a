// Package cache implements the response cache consulted by the page handler.
// Entries are keyed by request route and carry the time they were stored;
// callers compare that time against the content root mtime before trusting an
// entry, so a single touch of the content root invalidates the whole site.
// Three drivers share the Store contract: files under CachePath (temp file +
// rename, per-key locks), an in-process go-cache map, and a SQLite table.
package cache
