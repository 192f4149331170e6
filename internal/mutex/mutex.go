package mutex

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// New creates a named Mutex. The name only shows up in the debug log.
func New(name string) *Mutex {
	mu := &Mutex{name: name}
	mu.Printf("--- begin ---")
	return mu
}

// Mutex wraps sync.Mutex, providing these additional features:
//   - You can `defer Lock(...).Unlock()` in a single line
//   - If ASSETPIPE_MUTEX_LOG names a file, lock/unlock info is appended to
//     it, tagged with the mutex name and the caller-provided reason.
//   - You can log additional info to the same file with [Mutex.Printf].
type Mutex struct {
	name string
	mu   sync.Mutex
}

var (
	logfile   *os.File
	logfileMu sync.Mutex
)

func init() {
	path := os.Getenv("ASSETPIPE_MUTEX_LOG")
	if path == "" {
		return
	}
	f, err := os.Create(path)
	if err != nil {
		panic(err)
	}
	logfile = f
}

func (mu *Mutex) Lock(reason string) *Mutex {
	mu.Printf("%s seeks lock", reason)
	mu.mu.Lock()
	mu.Printf("%s receives lock", reason)

	return mu
}

func (mu *Mutex) Unlock() {
	mu.Printf("releases lock")
	mu.mu.Unlock()
}

func (mu *Mutex) Printf(s string, args ...any) {
	if logfile == nil {
		return
	}
	logfileMu.Lock()
	defer logfileMu.Unlock()

	prefix := fmt.Sprintf("%s [%s] ", time.Now().Format(time.StampNano), mu.name)
	fmt.Fprintf(logfile, prefix+strings.TrimSpace(s)+"\n", args...)
}
