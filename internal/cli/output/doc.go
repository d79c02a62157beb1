// Package output renders command results as table, JSON or YAML.
//
// Struct fields are named by their json tags in every format, so a value
// prints with the same keys whichever format is selected.
package output
