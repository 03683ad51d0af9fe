//go:build !windows

package main

// setConsoleUTF8 is a no-op outside Windows: every other terminal this CLI
// runs under already defaults to a UTF-8 locale.
func setConsoleUTF8() {}
