//go:build windows

package tray

import (
	"log"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	mbOK              = 0x00000000
	mbIconInformation = 0x00000040
)

var (
	user32          = windows.NewLazySystemDLL("user32.dll")
	procMessageBoxW = user32.NewProc("MessageBoxW")
)

func showAbout(title, message string) {
	titlePtr, err := windows.UTF16PtrFromString(title)
	if err != nil {
		log.Printf("Tray: about title: %v", err)
		return
	}
	messagePtr, err := windows.UTF16PtrFromString(message)
	if err != nil {
		log.Printf("Tray: about text: %v", err)
		return
	}
	_, _, _ = procMessageBoxW.Call(
		0,
		uintptr(unsafe.Pointer(messagePtr)),
		uintptr(unsafe.Pointer(titlePtr)),
		uintptr(mbOK|mbIconInformation),
	)
}
