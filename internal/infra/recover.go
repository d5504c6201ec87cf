package infra

import (
	"fmt"
	"runtime"
	"strings"

	log "github.com/sirupsen/logrus"
)

// GoRecoverable runs f and restarts it after a panic, at most maxPanics
// times. A negative maxPanics restarts without limit; the update loop runs
// under that mode so a single bad update cannot take the bot down.
func GoRecoverable(maxPanics int, id string, f func()) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		entry := log.WithFields(log.Fields{"job": id, "origin": identifyPanic()})
		if maxPanics == 0 {
			entry.Fatalf("panic limit exceeded: %v", r)
		}
		entry.Errorf("recovered from panic: %v", r)
		if maxPanics > 0 {
			maxPanics--
		}
		go GoRecoverable(maxPanics, id, f)
	}()
	f()
}

// identifyPanic names the first non-runtime frame of the panicking stack.
func identifyPanic() string {
	var pc [16]uintptr
	n := runtime.Callers(3, pc[:])
	for _, frame := range pc[:n] {
		fn := runtime.FuncForPC(frame)
		if fn == nil {
			continue
		}
		name := fn.Name()
		if strings.HasPrefix(name, "runtime.") {
			continue
		}
		_, line := fn.FileLine(frame)
		if name != "" {
			return fmt.Sprintf("%s:%d", name, line)
		}
	}
	return "unknown"
}
