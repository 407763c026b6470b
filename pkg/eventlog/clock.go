package eventlog

import "time"

// nowFunc is overridden in tests that need a deterministic timestamp.
var nowFunc = time.Now
