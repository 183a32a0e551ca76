//go:build wasm

package main

import (
	"syscall/js"
)

func main() {
	// Export functions to JavaScript
	js.Global().Set("LogsiftNewScanner", js.FuncOf(newScanner))
	js.Global().Set("LogsiftScan", js.FuncOf(scanOne))
	js.Global().Set("LogsiftScanBatch", js.FuncOf(scanBatch))
	js.Global().Set("LogsiftDetect", js.FuncOf(detectGrammar))
	js.Global().Set("LogsiftCloseScanner", js.FuncOf(closeScanner))
	js.Global().Set("LogsiftGetBuiltinRules", js.FuncOf(getBuiltinRules))

	// Keep WASM running
	<-make(chan struct{})
}
