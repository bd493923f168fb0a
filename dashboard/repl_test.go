package dashboard

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExec(t *testing.T) {
	src := returning(nil, nil)
	c := newTestController(src, &recordingView{})
	var out bytes.Buffer

	require.NoError(t, Exec(c, &out, "drag 2000 150000"))
	require.NoError(t, Exec(c, &out, "  "))
	require.NoError(t, Exec(c, &out, "ORDER -rating"))
	assert.Error(t, Exec(c, &out, "price 10"))
	assert.Error(t, Exec(c, &out, "price abc 100"))
	assert.Error(t, Exec(c, &out, "launch"))
	assert.ErrorIs(t, Exec(c, &out, "quit"), ErrQuit)

	require.NoError(t, Exec(c, &out, "filters"))
	assert.Contains(t, out.String(), `price 2000-150000`)
	assert.Contains(t, out.String(), `ordering "-rating"`)

	c.Close()
	require.Len(t, src.Calls(), 1)
	assert.Equal(t, "min_price=2000&ordering=-rating", src.Calls()[0].Encode())
}

func TestRunREPL(t *testing.T) {
	src := returning(nil, nil)
	c := newTestController(src, &recordingView{})
	defer c.Close()

	in := strings.NewReader("rating 4.5\nreviews\nbogus\nquit\nrating 1\n")
	var out bytes.Buffer
	require.NoError(t, RunREPL(context.Background(), in, &out, c))

	assert.Equal(t, "4.5", c.Filters().MinRating)
	assert.Equal(t, "", c.Filters().MinReviews)
	assert.Contains(t, out.String(), `error: unknown command "bogus"`)
}

func TestRunREPLStopsOnCancel(t *testing.T) {
	c := newTestController(returning(nil, nil), &recordingView{})
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := RunREPL(ctx, strings.NewReader("refresh\n"), &bytes.Buffer{}, c)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunREPLStopsOnCancelWhileIdle(t *testing.T) {
	c := newTestController(returning(nil, nil), &recordingView{})
	defer c.Close()

	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- RunREPL(ctx, pr, io.Discard, c) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("RunREPL still blocked 1s after cancel with no input")
	}
}

func TestRunREPLEndOfInput(t *testing.T) {
	c := newTestController(returning(nil, nil), &recordingView{})
	defer c.Close()

	err := RunREPL(context.Background(), strings.NewReader("drag 1000 2000\n"), io.Discard, c)
	require.NoError(t, err)
	assert.Equal(t, 1000, c.Filters().PriceLower)
}
