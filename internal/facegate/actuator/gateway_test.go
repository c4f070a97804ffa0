package actuator_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/facegate/server/internal/facegate/actuator"
)

type fakePort struct {
	mu     sync.Mutex
	writes []string
	fail   bool
	closed bool
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return 0, errors.New("io failure")
	}
	p.writes = append(p.writes, string(b))
	return len(b), nil
}

func (p *fakePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakePort) Writes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.writes))
	copy(out, p.writes)
	return out
}

// fakeOpener hands out one port per device, then refuses, so reconnect
// loops cannot resurrect a controller mid-test.
type fakeOpener struct {
	mu     sync.Mutex
	ports  map[string]*fakePort
	broken map[string]bool
	opened map[string]int
}

func newFakeOpener() *fakeOpener {
	return &fakeOpener{
		ports:  make(map[string]*fakePort),
		broken: make(map[string]bool),
		opened: make(map[string]int),
	}
}

func (o *fakeOpener) open(device string) (actuator.Port, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opened[device]++
	if o.broken[device] || o.opened[device] > 1 {
		return nil, errors.New("device not present")
	}
	p := &fakePort{}
	o.ports[device] = p
	return p, nil
}

func testConfigs() []actuator.ControllerConfig {
	return []actuator.ControllerConfig{
		{ID: 1, Device: "devA", Doors: []int{4, 5, 6}},
		{ID: 2, Device: "devB", Doors: []int{7, 8, 9}},
	}
}

func newTestGateway(t *testing.T, opener *fakeOpener) *actuator.Gateway {
	t.Helper()
	g := actuator.NewGateway(testConfigs(), opener.open, zap.NewNop())
	t.Cleanup(g.Close)
	return g
}

func TestSend_FramesCommandForCorrectController(t *testing.T) {
	opener := newFakeOpener()
	g := newTestGateway(t, opener)

	require.NoError(t, g.Send(6, actuator.CommandGrant))
	require.NoError(t, g.Send(7, actuator.CommandAlert))

	assert.Equal(t, []string{"verde6\n"}, opener.ports["devA"].Writes())
	assert.Equal(t, []string{"alerta7\n"}, opener.ports["devB"].Writes())
}

func TestSend_UnknownDoorRejectedWithoutControllerContact(t *testing.T) {
	opener := newFakeOpener()
	g := newTestGateway(t, opener)

	err := g.Send(10, actuator.CommandGrant)
	assert.ErrorIs(t, err, actuator.ErrUnknownDoor)
	assert.Empty(t, opener.ports["devA"].Writes())
	assert.Empty(t, opener.ports["devB"].Writes())
}

func TestSend_UnknownCommandRejectedBeforeTransmission(t *testing.T) {
	opener := newFakeOpener()
	g := newTestGateway(t, opener)

	err := g.Send(4, actuator.Command("open"))
	assert.ErrorIs(t, err, actuator.ErrUnknownCommand)
	assert.Empty(t, opener.ports["devA"].Writes())
}

func TestSend_UnavailableControllerIsLoggedNoOp(t *testing.T) {
	opener := newFakeOpener()
	opener.broken["devB"] = true
	g := newTestGateway(t, opener)

	// Controller 2 never opened; its doors fail soft.
	err := g.Send(8, actuator.CommandDeny)
	assert.ErrorIs(t, err, actuator.ErrControllerUnavailable)

	// Controller 1 is unaffected.
	require.NoError(t, g.Send(4, actuator.CommandDeny))
	assert.Equal(t, []string{"rojo4\n"}, opener.ports["devA"].Writes())
}

func TestSend_WriteFailureMarksControllerUnavailable(t *testing.T) {
	opener := newFakeOpener()
	g := newTestGateway(t, opener)

	opener.ports["devA"].fail = true

	err := g.Send(5, actuator.CommandGrant)
	assert.ErrorIs(t, err, actuator.ErrWriteFailed)
	assert.True(t, opener.ports["devA"].closed, "failed port is closed")

	// The opener refuses a second open, so the controller stays down.
	err = g.Send(5, actuator.CommandGrant)
	assert.ErrorIs(t, err, actuator.ErrControllerUnavailable)
}

func TestSend_AllCommandWords(t *testing.T) {
	opener := newFakeOpener()
	g := newTestGateway(t, opener)

	for _, cmd := range []actuator.Command{
		actuator.CommandGrant, actuator.CommandDeny,
		actuator.CommandBlink, actuator.CommandAlert,
	} {
		require.NoError(t, g.Send(4, cmd))
	}

	assert.Equal(t,
		[]string{"verde4\n", "rojo4\n", "parpadear4\n", "alerta4\n"},
		opener.ports["devA"].Writes())
}
