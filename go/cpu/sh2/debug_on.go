//go:build sh2debug
// +build sh2debug

package sh2

// debug builds verify cached blocks against memory on every hit and panic on
// consistency errors
const debugChecks = true
