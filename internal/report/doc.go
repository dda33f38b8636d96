// Package report writes the append-only results log and the watermark
// ground truth file.
//
// # Results log
//
// The results log is newline-delimited JSON with exactly one record per
// watermark or attack run. Downstream analysis keys on field names, so the
// record structs in this package are the contract:
//
//	{"action":"deletion_attack","run_id":"...","timestamp":"...","duration":1.5,
//	 "error":false,"batch_size":5,"iterations":12,...}
//
// Every record starts with the Header fields (action, run_id, timestamp,
// duration, error). Counts are always read from the store when the record is
// built, never carried over from an earlier point of the run.
//
// # Ground truth
//
// The ground truth file records the carrier ids and the codec key of one
// watermark run. It is written by the watermark command and read back by
// verification and attack commands.
package report
