package hostabi

/*
#cgo windows LDFLAGS: -lpsapi
#cgo linux LDFLAGS: -ldl

#include <stdlib.h>

#if defined(_WIN32)
#define WIN32_LEAN_AND_MEAN
#include <windows.h>

// UTF-8 path of the DLL containing this function, or NULL. Caller frees.
static char* st_library_path(void) {
	HMODULE self = NULL;
	DWORD flags = GET_MODULE_HANDLE_EX_FLAG_FROM_ADDRESS | GET_MODULE_HANDLE_EX_FLAG_UNCHANGED_REFCOUNT;
	if (!GetModuleHandleExW(flags, (LPCWSTR)(void*)st_library_path, &self)) {
		return NULL;
	}

	wchar_t* wide = NULL;
	for (DWORD cap = MAX_PATH; cap <= 32768; cap *= 2) {
		wchar_t* grown = (wchar_t*)realloc(wide, cap * sizeof(wchar_t));
		if (grown == NULL) {
			break;
		}
		wide = grown;
		DWORD n = GetModuleFileNameW(self, wide, cap);
		if (n == 0) {
			break;
		}
		if (n < cap) {
			int need = WideCharToMultiByte(CP_UTF8, 0, wide, -1, NULL, 0, NULL, NULL);
			char* out = need > 0 ? (char*)malloc(need) : NULL;
			if (out != NULL) {
				WideCharToMultiByte(CP_UTF8, 0, wide, -1, out, need, NULL, NULL);
			}
			free(wide);
			return out;
		}
	}
	free(wide);
	return NULL;
}

#elif defined(__linux__)
#define _GNU_SOURCE
#include <dlfcn.h>
#include <string.h>

static char* st_library_path(void) {
	Dl_info info;
	if (!dladdr((void*)st_library_path, &info) || info.dli_fname == NULL) {
		return NULL;
	}
	return strdup(info.dli_fname);
}

#else
static char* st_library_path(void) { return NULL; }
#endif
*/
import "C"

import (
	"path/filepath"
	"unsafe"
)

// LibraryPath is the file the extension was loaded from, or "" if the loader
// cannot tell.
func LibraryPath() string {
	p := C.st_library_path()
	if p == nil {
		return ""
	}
	defer C.free(unsafe.Pointer(p))
	return C.GoString(p)
}

// ModuleDir is where the config file and fuel catalog live: the library's
// folder, or the working directory as a fallback.
func ModuleDir() string {
	if p := LibraryPath(); p != "" {
		return filepath.Dir(p)
	}
	return "."
}
