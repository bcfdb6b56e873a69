// Package lifecycle holds shared constants for application start and stop hooks.
package lifecycle

import "time"

// DefaultTimeout bounds how long a single component may take to start or shut down.
const DefaultTimeout = 10 * time.Second
