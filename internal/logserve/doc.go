// Package logserve orchestrates log reads for the two consumption modes the
// API exposes: single-chunk interactive pagination, where each client round
// trip maps to exactly one backend read, and full aggregation for download,
// where the engine loops the cursor protocol to completion under hard size
// and iteration caps.
package logserve
