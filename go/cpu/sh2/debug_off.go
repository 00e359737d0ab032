//go:build !sh2debug
// +build !sh2debug

package sh2

const debugChecks = false
