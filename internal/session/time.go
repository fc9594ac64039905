package session

import "time"

// timeNow is a package-level variable for testability.
// Tests replace it to pin creation dates and update timestamps.
var timeNow = time.Now
