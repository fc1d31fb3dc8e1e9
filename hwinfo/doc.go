// Package hwinfo describes the compute hardware visible to the process.
//
// GPU devices are discovered through a Driver and enriched with the number
// of cores per multiprocessor, looked up in a static table keyed by compute
// capability. A capability missing from the table is reported as Unknown,
// and so is every figure derived from it; nothing is guessed.
//
// CPU reports the host's SIMD features, which bound the useful lane width of
// the vector evaluation strategy.
package hwinfo
