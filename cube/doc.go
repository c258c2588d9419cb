// Package cube builds and queries index cubes.
//
// For an active dimension A and a passive view V, the cube holds
//
//   - Unfiltered: V's bin counts under every filter except A's and V's own.
//   - Filtered: the same counts split by A's key. For a continuous A the
//     key axis has Resolution+1 rows and is prefix-summed, so a brush over
//     pixel boundaries [lo, hi) costs one subtraction per passive bin. For a
//     categorical A there is one row per category and selections are summed.
//
// A 0D passive view (a plain count) uses a single passive bin.
//
// Build computes the cubes of all passive views in one scan of the table.
package cube
