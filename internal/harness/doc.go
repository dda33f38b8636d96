// Package harness runs watermark robustness experiments described in YAML.
//
// An experiment generates a seeded dataset in an isolated in-memory store,
// watermarks it, verifies the mark and then runs each listed attack against
// a fresh copy of the watermarked graph. Assertions check the outcome.
//
// # Experiment Format
//
//	name: small_batches
//	description: "Deletion in batches of 5 eventually removes every carrier"
//	seed: 42
//	dataset:
//	  records: 60
//	  max_relations: 4
//	watermark:
//	  key: 7
//	  min_group_size: 3
//	  max_group_size: 6
//	attacks:
//	  - type: deletion
//	    batch_size: 5
//	  - type: fast_deletion
//	    percentages: [0.1, 0.5]
//	    iterations: 20
//	assertions:
//	  - type: verified
//	    expect: true
//	  - type: attack_state
//	    attack: 0
//	    state: verification_failed
//	  - type: record_field
//	    attack: 0
//	    field: watermarked_nodes_left
//	    max: 0
//
// Runs are deterministic: the seed drives every random draw, and timestamps
// and run ids come from fixed generators.
package harness
