package hedge_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"andy.dev/hedge"
)

func ExampleFnOutCtx() {
	fnToHedge := func(ctx context.Context) (string, error) {
		attempt := hedge.GetStatus(ctx).Attempt
		if attempt < 2 {
			return "", errors.New("not yet")
		}
		return fmt.Sprintf("value from attempt #%d", attempt), nil
	}

	str, err := hedge.FnOutCtx(context.Background(), fnToHedge,
		hedge.Interval(20*time.Millisecond), hedge.MaxAttempts(3))
	if err != nil {
		fmt.Println(err)
	}
	fmt.Printf("Got: %s", str)
	// Output:
	// Got: value from attempt #2
}

func ExampleExhausted() {
	fnToHedge := func(ctx context.Context) error {
		err := fmt.Errorf("attempt #%d failed", hedge.GetStatus(ctx).Attempt)
		fmt.Printf("there was a problem: %v\n", err)
		return err
	}

	err := hedge.FnCtx(context.Background(), fnToHedge,
		hedge.Interval(20*time.Millisecond), hedge.MaxAttempts(2))
	if err != nil {
		fmt.Println(err)
	}

	if hedge.Exhausted(err) {
		fmt.Println("looks like that was it")
	}
	// Output:
	// there was a problem: attempt #0 failed
	// there was a problem: attempt #1 failed
	// attempt #1 failed
	// looks like that was it
}

func ExampleEach() {
	slow := make(chan struct{})
	fnToHedge := func(ctx context.Context) (int, error) {
		if hedge.GetStatus(ctx).Attempt == 0 {
			<-slow
			return 0, nil
		}
		return 1, nil
	}

	eachFn := func(s hedge.Status) {
		fmt.Printf("%s: %s\n", s, s.Event)
	}

	val, err := hedge.FnOutCtx(context.Background(), fnToHedge,
		hedge.Interval(20*time.Millisecond), hedge.MaxAttempts(2), hedge.Each(eachFn))
	close(slow)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println("winner:", val)
	// Output:
	// attempt 1/2: launch
	// attempt 2/2: hedge
	// attempt 2/2: launch
	// attempt 2/2: success
	// winner: 1
}

func ExampleRun() {
	done := make(chan struct{})
	err := hedge.Run(context.Background(), func(context.Context) (string, error) {
		return "pong", nil
	}, func(res hedge.Result[string]) {
		defer close(done)
		fmt.Printf("attempt #%d: %s %v\n", res.Attempt, res.Value, res.Err)
	}, hedge.Interval(time.Second))
	if err != nil {
		fmt.Println(err)
		return
	}
	<-done
	// Output:
	// attempt #0: pong <nil>
}
