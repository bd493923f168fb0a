package dashboard

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrQuit is returned by Exec for the quit command.
var ErrQuit = errors.New("quit")

const replHelp = `commands:
  price LO HI   set the price range and fetch
  drag LO HI    move the price handles without fetching
  rating [V]    minimum rating, empty clears (debounced)
  reviews [V]   minimum review count, empty clears (debounced)
  order [KEY]   sort key, e.g. price or -rating; empty restores default
  refresh       fetch with the current filters
  filters       show the current filters
  quit          exit`

// RunREPL reads commands from in, one per line, and drives c until quit,
// end of input or ctx cancellation. Cancellation is honoured while waiting
// for input; the reader goroutine then exits on the next read from in.
func RunREPL(ctx context.Context, in io.Reader, out io.Writer, c *Controller) error {
	readCtx, stopReader := context.WithCancel(ctx)
	defer stopReader()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-readCtx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	fmt.Fprintln(out, "type 'help' for commands")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return <-scanErr
			}
			err := Exec(c, out, line)
			if errors.Is(err, ErrQuit) {
				return nil
			}
			if err != nil {
				fmt.Fprintln(out, "error:", err)
			}
		}
	}
}

// Exec runs a single REPL command line against c.
func Exec(c *Controller, out io.Writer, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	arg := strings.Join(args, " ")

	switch cmd {
	case "price", "drag":
		lo, hi, err := parseRange(args)
		if err != nil {
			return err
		}
		if cmd == "price" {
			c.CommitPriceRange(lo, hi)
		} else {
			c.DragPriceRange(lo, hi)
		}
	case "rating":
		c.SetMinRating(arg)
	case "reviews":
		c.SetMinReviews(arg)
	case "order", "ordering":
		c.SetOrdering(arg)
	case "refresh":
		c.Refresh()
	case "filters":
		f := c.Filters()
		fmt.Fprintf(out, "price %d-%d, rating %q, reviews %q, ordering %q\n",
			f.PriceLower, f.PriceUpper, f.MinRating, f.MinReviews, f.Ordering)
	case "help":
		fmt.Fprintln(out, replHelp)
	case "quit", "exit":
		return ErrQuit
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

func parseRange(args []string) (int, int, error) {
	if len(args) != 2 {
		return 0, 0, errors.New("usage: price LO HI")
	}
	lo, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid lower bound %q", args[0])
	}
	hi, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid upper bound %q", args[1])
	}
	return lo, hi, nil
}
