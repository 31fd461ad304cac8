// Package format defines the on-disk layout of nla archives: the fixed
// header, the per-entry record, the three-part entry path and the nested
// index grammar that ties them together.
//
// All integers are little-endian. A root volume is laid out as
//
//	header (32 bytes) | dictionary (DictSize bytes) | index (TreeSize bytes) | data
//
// and a companion volume holds data only.
package format
