// Package server hosts the Fiber HTTP service that exposes the page tree as
// JSON. Every request gets its own pages.Store (the per-request memoization
// table), page responses go through the response cache guarded by the content
// root watermark, and the /-/api/ surface is dispatched through the internal
// router so the same pattern compiler serves both page and API routes.
// Diagnostics live under /-/ and are registered by the routes subpackage.
package server
