package templating

import (
	"fmt"
	"os"
	"path"
	"sync"

	"github.com/t2bot/snapshot-repo/common/config"
)

type templates struct {
	cached map[string][]byte
	lock   sync.RWMutex
}

var instance *templates
var singletonLock = &sync.Once{}

func getInstance() *templates {
	if instance == nil {
		singletonLock.Do(func() {
			instance = &templates{
				cached: make(map[string][]byte),
			}
		})
	}
	return instance
}

// GetTemplate returns the raw markup of <name>.html from the templates path.
func GetTemplate(name string) ([]byte, error) {
	i := getInstance()
	i.lock.RLock()
	v, ok := i.cached[name]
	i.lock.RUnlock()
	if ok {
		return v, nil
	}

	fname := fmt.Sprintf("%s.html", name)
	b, err := os.ReadFile(path.Join(config.Runtime.TemplatesPath, fname))
	if err != nil {
		return nil, err
	}

	i.lock.Lock()
	i.cached[name] = b
	i.lock.Unlock()
	return b, nil
}

func Reset() {
	i := getInstance()
	i.lock.Lock()
	i.cached = make(map[string][]byte)
	i.lock.Unlock()
}
