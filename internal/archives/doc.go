// Package archives gives access to cold-storage message archives: the
// catalog rows that describe them (kept in Postgres by the platform) and the
// gzipped JSON lines blobs holding their records.
//
// An archive covers one day (period D) or one month (period M) of one org's
// records of one type. Daily archives are rolled up into monthly ones, after
// which they point at the monthly archive through their rollup id.
package archives
