// Package textutil cleans user and url supplied names before they are used
// as file names inside a location.
package textutil
