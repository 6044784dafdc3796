/*
Package channel provides a bounded single-producer/single-consumer queue
with blocking hand-off and an end-of-stream signal.

A Channel connects exactly two pipe stages. The producer calls Put for every
unit and Close once after the last one. The consumer calls Get until it
reports end-of-stream:

	for {
		v, ok := c.Get()
		if !ok {
			break
		}
		...
	}

Units are kept in a fixed ring, so a slow consumer stalls its producer
instead of growing memory. Put after Close and a second Close are wiring
errors and panic.
*/
package channel
