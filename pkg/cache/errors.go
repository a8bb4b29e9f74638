package cache

import "errors"

// ErrCacheMiss is returned by GetJSON when a key is absent or its value no
// longer decodes, for example after the cached type changed.
var ErrCacheMiss = errors.New("cache miss")
