package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCircuitState_String(t *testing.T) {
	assert.Equal(t, "closed", CircuitClosed.String())
	assert.Equal(t, "open", CircuitOpen.String())
	assert.Equal(t, "half-open", CircuitHalfOpen.String())
	assert.Equal(t, "unknown", CircuitState(42).String())
}

func TestNoOpCollector(t *testing.T) {
	var c Collector = NoOpCollector{}
	assert.NotPanics(t, func() {
		c.RecordMessage("appended")
		c.RecordRecord("OUT", "Fuel")
		c.RecordBufferDepth(3)
		c.RecordForward(true, 3, time.Second)
		c.RecordCircuitState(CircuitOpen)
	})
}
