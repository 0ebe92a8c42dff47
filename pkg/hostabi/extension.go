package hostabi

/*
#include <stddef.h>
*/
import "C"

import (
	"strings"
	"unsafe"
)

// The host calls these three symbols. Each writes a NUL-terminated reply into
// output. Command replies that would overflow outputsize become a
// "reply too large" error; the version string is cut short.

//export SmartTankVersion
func SmartTankVersion(output *C.char, outputsize C.size_t) {
	reply(output, outputsize, Version())
}

// SmartTank takes a bare command, optionally with a payload after a pipe.
//
//export SmartTank
func SmartTank(output *C.char, outputsize C.size_t, input *C.char) {
	in := C.GoString(input)
	command, _, _ := strings.Cut(in, "|")
	reply(output, outputsize, FitReply(command, CallRaw(in), int(outputsize)))
}

//export SmartTankArgs
func SmartTankArgs(output *C.char, outputsize C.size_t, input *C.char, argv **C.char, argc C.int) {
	command := C.GoString(input)
	reply(output, outputsize, FitReply(command, Call(command, goArgs(argv, argc)), int(outputsize)))
}

func goArgs(argv **C.char, argc C.int) []string {
	if argv == nil || argc <= 0 {
		return nil
	}
	args := make([]string, 0, int(argc))
	for _, p := range unsafe.Slice(argv, int(argc)) {
		args = append(args, C.GoString(p))
	}
	return args
}

func reply(output *C.char, outputsize C.size_t, s string) {
	if output == nil || outputsize == 0 {
		return
	}
	buf := unsafe.Slice((*byte)(unsafe.Pointer(output)), int(outputsize))
	n := copy(buf[:len(buf)-1], s)
	buf[n] = 0
}
