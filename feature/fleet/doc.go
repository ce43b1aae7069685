// Package fleet holds the entity store operations used by collaborators and
// the battery status classifier.
//
// Classification is a pure function of a "YYYY-MM" manufacturing date, the
// current time and two thresholds. The thresholds live in Config under
// bat_aviso (warning, default 48 months) and bat_critico (critical, default
// 54 months) and are read on every listing, so changes apply immediately.
//
// Routes:
//   - GET /fleet/assets
//   - GET /fleet/thresholds
package fleet
