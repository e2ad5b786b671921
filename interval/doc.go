/*Package interval implements interval-union operations used to compute query
  and subject coverage for sets of hits and exons.
  (Note the 'union'.  Overlapping intervals are merged, not tracked
  separately; it is currently necessary to use another package when that is not
  the desired behavior.)
  It assumes every position fits in a PosType, which is currently defined as
  int32 since that comfortably covers transcript and chromosome coordinates.
*/
package interval
