// Package middleware contains HTTP middleware for the Fiber application.
//
// # Components
//
//   - auth: API key validation (X-API-Key header).
//   - rayid: a unique Request ID per request, stored in Locals("ray_id") and
//     echoed in the X-Ray-ID response header for tracing.
//   - ratelimit: per client IP token buckets, used on the snapshot routes.
package middleware
