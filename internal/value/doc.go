// Package value implements the dynamically typed key/value store used to pass
// configuration into elements and to hold module-private metadata.
//
// Type is a closed tagged union; Value wraps a Type with presentation
// metadata; Data maps string keys to Values. Data distinguishes Add, which
// refuses to overwrite an existing key, from Set, which upserts.
package value
