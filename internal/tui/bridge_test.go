package tui

import (
	"context"
	"testing"
	"time"

	"github.com/idilsaglam/violet/internal/controller"
	"github.com/idilsaglam/violet/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBridge_NotifyAfterCloseDoesNotBlock(t *testing.T) {
	br := NewBridge()
	br.Close()
	br.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			br.Notify(controller.Notice{Level: controller.LevelInfo, Text: "late"})
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify blocked with nobody listening")
	}
}

func TestBridge_RequestsFailAfterClose(t *testing.T) {
	br := NewBridge()
	// Fill the buffer so only the closed signal can release the senders.
	for i := 0; i < cap(br.events); i++ {
		br.Notify(controller.Notice{Text: "queued"})
	}
	br.Close()

	ok, err := br.Confirm(context.Background(), "Delete?")
	require.ErrorIs(t, err, ErrBridgeClosed)
	assert.False(t, ok)
	require.ErrorIs(t, br.Edit(context.Background(), model.KindAgents, 1), ErrBridgeClosed)
}

func TestBridge_ConfirmWaitingForAnswerEndsOnClose(t *testing.T) {
	br := NewBridge()
	errc := make(chan error, 1)
	go func() {
		_, err := br.Confirm(context.Background(), "Delete?")
		errc <- err
	}()

	ev := <-br.events
	_, isConfirm := ev.(confirmRequest)
	require.True(t, isConfirm)
	br.Close()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrBridgeClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("Confirm kept waiting after Close")
	}
}
