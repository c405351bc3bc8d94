package tty

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jacky12315/Weenix/internal/sched"
	"github.com/Jacky12315/Weenix/internal/tty/ratelimit"
)

// fakeDriver is a minimal in-memory Driver used by tests: it records
// every echoed byte and the sequence of block/unblock calls.
type fakeDriver struct {
	mu       sync.Mutex
	echoed   []byte
	blocked  int
	tokenSeq int
}

func newFakeDriver() *fakeDriver { return &fakeDriver{} }

func (d *fakeDriver) ProvideChar(c byte) {
	d.mu.Lock()
	d.echoed = append(d.echoed, c)
	d.mu.Unlock()
}

func (d *fakeDriver) BlockIO() any {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.blocked++
	d.tokenSeq++
	return d.tokenSeq
}

func (d *fakeDriver) UnblockIO(token any) {
	d.mu.Lock()
	d.blocked--
	d.mu.Unlock()
}

func (d *fakeDriver) echoedString() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return string(d.echoed)
}

func newTestDevice() (*Device, *fakeDriver, *sched.Scheduler) {
	s := sched.New()
	drv := newFakeDriver()
	dev := NewDevice(0, drv, s)
	dev.Attach(NewLineDiscipline())
	return dev, drv, s
}

func TestReceiveCharEchoesPrintableInput(t *testing.T) {
	dev, drv, _ := newTestDevice()
	dev.Callback('h')
	dev.Callback('i')
	assert.Equal(t, "hi", drv.echoedString())
}

func TestReceiveCharBackspaceErasesLastByte(t *testing.T) {
	dev, drv, _ := newTestDevice()
	dev.Callback('a')
	dev.Callback(charBackspace1)
	assert.Equal(t, "a\b \b", drv.echoedString())
}

func TestReceiveCharBackspaceOnEmptyLineIsNoop(t *testing.T) {
	dev, drv, _ := newTestDevice()
	dev.Callback(charBackspace1)
	assert.Equal(t, "", drv.echoedString())
}

func TestReceiveCharKillLineErasesWholeLine(t *testing.T) {
	dev, drv, _ := newTestDevice()
	dev.Callback('a')
	dev.Callback('b')
	dev.Callback('c')
	dev.Callback(charKillLine)
	assert.Equal(t, "abc\b \b\b \b\b \b", drv.echoedString())
}

func TestReceiveCharNewlineEchoesCRLF(t *testing.T) {
	dev, drv, _ := newTestDevice()
	dev.Callback('x')
	dev.Callback('\n')
	assert.Equal(t, "x\r\n", drv.echoedString())
}

// TestReadBlocksUntilLineReady exercises the read path's suspend point:
// a reader calling Read before any newline arrives must block, and wake
// once receive_char completes a line.
func TestReadBlocksUntilLineReady(t *testing.T) {
	dev, _, s := newTestDevice()

	result := make(chan int, 1)
	readerStarted := make(chan struct{})
	buf := make([]byte, 16)

	reader := s.Spawn("reader", nil, func() {
		close(readerStarted)
		n := dev.Read(buf, len(buf))
		result <- n
	})
	s.MakeRunnable(reader)

	<-readerStarted

	dev.Callback('h')
	dev.Callback('i')
	dev.Callback('\n')

	select {
	case n := <-result:
		assert.Equal(t, "hi\n", string(buf[:n]))
	case <-time.After(2 * time.Second):
		t.Fatal("reader never woke after line became ready")
	}
}

func TestReadReturnsPartialLineWhenBufferSmaller(t *testing.T) {
	dev, _, s := newTestDevice()

	dev.Callback('h')
	dev.Callback('e')
	dev.Callback('l')
	dev.Callback('l')
	dev.Callback('o')
	dev.Callback('\n')

	result := make(chan int, 1)
	buf := make([]byte, 3)
	reader := s.Spawn("reader", nil, func() {
		n := dev.Read(buf, len(buf))
		result <- n
	})
	s.MakeRunnable(reader)

	select {
	case n := <-result:
		require.Equal(t, 3, n)
		assert.Equal(t, "hel", string(buf[:n]))
	case <-time.After(2 * time.Second):
		t.Fatal("reader never returned")
	}
}

func TestWriteExpandsNewlineAndIsBinarySafe(t *testing.T) {
	dev, drv, _ := newTestDevice()

	buf := []byte("ab\x00cd\n")
	n := dev.Write(buf, len(buf))

	assert.Equal(t, len(buf), n, "write must process every byte including embedded NUL")
	assert.Equal(t, "ab\x00cd\r\n", drv.echoedString())
}

func TestWithRateLimiterOptionDropsOverflowCallbacks(t *testing.T) {
	s := sched.New()
	drv := newFakeDriver()
	limiter := ratelimit.NewLimiter(map[time.Duration]int{time.Minute: 1})
	dev := NewDevice(0, drv, s, WithRateLimiter(limiter))
	dev.Attach(NewLineDiscipline())

	dev.Callback('a')
	dev.Callback('b')

	assert.Equal(t, "a", drv.echoedString())
}

func TestWriteBlocksAndUnblocksDriverIO(t *testing.T) {
	dev, drv, _ := newTestDevice()
	dev.Write([]byte("x"), 1)
	assert.Equal(t, 0, drv.blocked, "BlockIO/UnblockIO calls must balance")
}
