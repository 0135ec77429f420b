//go:build windows

package main

import (
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/windows"
)

// The tray client is built as a GUI program; every other command keeps its
// console so output stays visible.
func init() {
	if keepConsole(os.Args[1:]) {
		return
	}
	hideConsoleWindow()
}

func keepConsole(args []string) bool {
	if raw := strings.TrimSpace(os.Getenv("TRAYMENU_SHOW_CONSOLE")); raw != "" {
		if show, err := strconv.ParseBool(raw); err != nil || show {
			return true
		}
	}

	for _, arg := range args {
		if strings.HasPrefix(arg, "-") {
			continue
		}
		return !strings.EqualFold(arg, "tray")
	}
	return false
}

func hideConsoleWindow() {
	kernel32 := windows.NewLazySystemDLL("kernel32.dll")
	user32 := windows.NewLazySystemDLL("user32.dll")

	getConsoleWindow := kernel32.NewProc("GetConsoleWindow")
	showWindow := user32.NewProc("ShowWindow")
	freeConsole := kernel32.NewProc("FreeConsole")

	hwnd, _, _ := getConsoleWindow.Call()
	if hwnd == 0 {
		return
	}

	const swHide = 0
	showWindow.Call(hwnd, swHide)
	freeConsole.Call()
}
