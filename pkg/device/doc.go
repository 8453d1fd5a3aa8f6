// Package device drives an Android device through the adb bridge.
//
// Adb implements tailer.Transport, streaming the kernel ring buffer with
// "dmesg -w" and the user log with "logcat -v epoch". It also reboots the
// device, reads boot-time properties and captures bug reports. Commands run
// through an Executor so tests can script device output.
package device
