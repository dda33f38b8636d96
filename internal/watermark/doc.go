// Package watermark inserts carrier documents into a graph and checks
// whether the mark is still detectable.
//
// The Injector partitions the existing nodes into random groups, synthesizes
// one camouflaged carrier per group, embeds the codec value into it and links
// it to every member of its group. The returned carrier ids are the ground
// truth consumed by the Oracle and by attack runs.
package watermark
