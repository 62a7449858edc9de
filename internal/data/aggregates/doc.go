// Package aggregates owns transaction boundaries for invariant-critical writes
// that span several tables, such as replacing a profile's extracted records.
package aggregates
