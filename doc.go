// Package mecomp defines the entity types shared by every subsystem of the
// music-intelligence core: audio decoding and descriptor extraction, the
// graph store, the similarity engine, the clusterer, and the dynamic
// playlist query language all exchange values of these types rather than
// private ones of their own.
package mecomp
