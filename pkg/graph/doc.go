// Package graph holds trend graph configurations and the registry of graph
// types. A graph type names a series extractor; a Configuration selects one
// and bounds the run window it is applied to.
package graph
