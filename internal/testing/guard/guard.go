package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("ARBITER_TEST_MODE") == "" {
			_ = os.Setenv("ARBITER_TEST_MODE", "1")
		}
	})
}
