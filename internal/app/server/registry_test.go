package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindEnforcesSingleSession(t *testing.T) {
	r := newRegistry()
	oldConn := &fakeConn{}
	old := newClient(oldConn)
	old.setIdentity("a")
	r.bind("a", old)

	fresh := newClient(&fakeConn{})
	fresh.setIdentity("a")
	r.bind("a", fresh)

	assert.True(t, oldConn.isClosed(), "previous connection must be closed")
	got, ok := r.lookup("a")
	require.True(t, ok)
	assert.Same(t, fresh, got)
}

func TestStaleUnbindKeepsNewerBind(t *testing.T) {
	r := newRegistry()
	old := newClient(&fakeConn{})
	old.setIdentity("a")
	fresh := newClient(&fakeConn{})
	fresh.setIdentity("a")

	r.bind("a", old)
	r.bind("a", fresh)
	r.unbind(old)

	got, ok := r.lookup("a")
	require.True(t, ok)
	assert.Same(t, fresh, got)

	r.unbind(fresh)
	_, ok = r.lookup("a")
	assert.False(t, ok)
}

func TestUnbindIgnoresAnonymousConnection(t *testing.T) {
	r := newRegistry()
	r.unbind(newClient(&fakeConn{}))
	_, ok := r.lookup("")
	assert.False(t, ok)
}
