// Package validation checks run parameters before any store call is made.
// This includes bucket name validation, key and prefix validation, and the
// size and index bounds of a run.
package validation
