//go:build windows

package main

import "syscall"

// setConsoleUTF8 switches the attached console's input and output code
// pages to UTF-8 before the render loop starts painting pane text, since a
// console left on the OEM code page mangles anything outside ASCII a pane
// running PowerShell writes.
func setConsoleUTF8() {
	kernel32 := syscall.NewLazyDLL("kernel32.dll")
	setOutputCP := kernel32.NewProc("SetConsoleOutputCP")
	setInputCP := kernel32.NewProc("SetConsoleCP")
	setOutputCP.Call(65001)
	setInputCP.Call(65001)
}
