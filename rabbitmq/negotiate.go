package rabbitmq

import (
	"time"
)

// negotiate picks the tuning value from the client's request and the
// broker's offer. Zero from either side means no limit, so the other side
// wins; otherwise the smaller value wins.
func negotiate[T uint16 | uint32](client, server T) T {
	if client == 0 {
		return server
	}
	if server == 0 {
		return client
	}
	return min(client, server)
}

// heartbeatSeconds converts a heartbeat interval to the 16-bit seconds
// carried by connection.tune-ok
func heartbeatSeconds(d time.Duration) uint16 {
	s := d / time.Second
	if s > 65535 {
		return 65535
	}
	if s < 0 {
		return 0
	}
	return uint16(s)
}
